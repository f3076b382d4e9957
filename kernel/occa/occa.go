// Package occa runs the column and edge updates of the dycore boundary as
// OKL kernels on an OCCA device. Validation and damping profiles are shared
// with the reference backend, so both accept and reject the same inputs.
package occa

import (
	"fmt"

	"github.com/notargets/gocca"
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/kernel/reference"
	"github.com/notargets/nhsolve/kernel/status"
	"github.com/notargets/nhsolve/logging"
	"github.com/notargets/nhsolve/runner"
	"github.com/notargets/nhsolve/runner/builder"
	"go.uber.org/zap"
)

// Kernel implements dycore.Kernel on an OCCA device
type Kernel struct {
	device      *gocca.OCCADevice
	runner      *runner.Runner
	initialized bool
	failed      int
	shape       dycore.Shape
	cfg         dycore.Config
	params      dycore.Params
	log         *zap.Logger
}

// New returns an uninitialized kernel using device. The device stays owned
// by the caller.
func New(device *gocca.OCCADevice) *Kernel {
	return &Kernel{device: device, log: logging.Logger().Named("occa")}
}

// metric bindings read by the kernels, copied to the device once at Init
func metricBindings(a *dycore.InitArgs) []*builder.ParamBuilder {
	return []*builder.ParamBuilder{
		builder.Input("c_owner_mask").Bind(a.COwnerMask),
		builder.Input("mask_prog_halo_c").Bind(a.MaskProgHaloC),
		builder.Input("exner_ref_mc").Bind(a.ExnerRefMC),
		builder.Input("exner_exfac").Bind(a.ExnerExfac),
		builder.Input("theta_ref_mc").Bind(a.ThetaRefMC),
		builder.Input("wgtfac_c").Bind(a.WgtfacC),
		builder.Input("wgtfacq_c").Bind(a.WgtfacqC),
		builder.Input("inv_ddqz_z_full").Bind(a.InvDdqzZFull),
		builder.Input("ddqz_z_half").Bind(a.DdqzZHalf),
		builder.Input("d_exner_dz_ref_ic").Bind(a.DExnerDzRefIC),
		builder.Input("vwind_expl_wgt").Bind(a.VwindExplWgt),
		builder.Input("vwind_impl_wgt").Bind(a.VwindImplWgt),
		builder.Input("rayleigh_w").Bind(a.RayleighW),
		builder.Input("nudgecoeff_e").Bind(a.NudgecoeffE),
		builder.Input("wgtfac_e").Bind(a.WgtfacE),
		builder.Input("wgtfacq_e").Bind(a.WgtfacqE),
		builder.Input("rho_ref_me").Bind(a.RhoRefME),
		builder.Input("ddqz_z_full_e").Bind(a.DdqzZFullE),
	}
}

// runBindings declares the per-call fields against placeholder storage that
// Run rebinds to the caller's Fields. Each carries the copies every call makes.
func runBindings(a *dycore.RunArgs) []*builder.ParamBuilder {
	return []*builder.ParamBuilder{
		builder.Input("rho_now").Bind(a.Now.Rho).CopyTo(),
		builder.Output("rho_new").Bind(a.New.Rho).CopyBack(),
		builder.Input("exner_now").Bind(a.Now.Exner).CopyTo(),
		builder.Output("exner_new").Bind(a.New.Exner).CopyBack(),
		builder.Input("theta_v_now").Bind(a.Now.ThetaV).CopyTo(),
		builder.Output("theta_v_new").Bind(a.New.ThetaV).CopyBack(),
		builder.Input("w_now").Bind(a.Now.W).CopyTo(),
		builder.Output("w_new").Bind(a.New.W).CopyBack(),
		builder.Input("vn_now").Bind(a.Now.Vn).CopyTo(),
		builder.Output("vn_new").Bind(a.New.Vn).CopyBack(),
		builder.Input("w_concorr_c").Bind(a.WConcorrC).CopyTo(),
		builder.Input("ddt_vn_apc_ntl1").Bind(a.DdtVnApcNtl1).CopyTo(),
		builder.Input("ddt_vn_apc_ntl2").Bind(a.DdtVnApcNtl2).CopyTo(),
		builder.Input("ddt_w_adv_ntl1").Bind(a.DdtWAdvNtl1).CopyTo(),
		builder.Input("ddt_w_adv_ntl2").Bind(a.DdtWAdvNtl2).CopyTo(),
		builder.Output("theta_v_ic").Bind(a.ThetaVIC).CopyBack(),
		builder.Output("rho_ic").Bind(a.RhoIC).CopyBack(),
		builder.InOut("exner_pr").Bind(a.ExnerPr).Copy(),
		builder.InOut("exner_dyn_incr").Bind(a.ExnerDynIncr).Copy(),
		builder.Input("ddt_exner_phy").Bind(a.DdtExnerPhy).CopyTo(),
		builder.Input("grf_tend_rho").Bind(a.GrfTendRho).CopyTo(),
		builder.Input("grf_tend_thv").Bind(a.GrfTendThv).CopyTo(),
		builder.Input("grf_tend_w").Bind(a.GrfTendW).CopyTo(),
		builder.Output("mass_fl_e").Bind(a.MassFlE).CopyBack(),
		builder.Input("ddt_vn_phy").Bind(a.DdtVnPhy).CopyTo(),
		builder.Input("grf_tend_vn").Bind(a.GrfTendVn).CopyTo(),
		builder.Output("vn_ie").Bind(a.VnIE).CopyBack(),
		builder.InOut("mass_flx_me").Bind(a.MassFlxME).Copy(),
		builder.InOut("mass_flx_ic").Bind(a.MassFlxIC).Copy(),
		builder.InOut("vol_flx_ic").Bind(a.VolFlxIC).Copy(),
		builder.InOut("vn_traj").Bind(a.VnTraj).Copy(),
	}
}

// Init validates the inputs, uploads the metric fields and compiles both
// kernels
func (k *Kernel) Init(a *dycore.InitArgs) int {
	if k.failed != status.OK {
		return k.failed
	}
	shape, code := reference.Validate(a)
	if code != status.OK {
		return k.fail(code)
	}
	if k.runner != nil {
		k.runner.Free()
	}
	if err := k.setup(a, shape); err != nil {
		k.log.Error("device setup failed", zap.Error(err))
		return k.fail(status.BackendFailure)
	}
	k.shape = shape
	k.cfg = a.Config
	k.params = dycore.NewParams(a.Config)
	k.initialized = true
	return status.OK
}

func (k *Kernel) setup(a *dycore.InitArgs, s dycore.Shape) error {
	r := runner.NewRunner(k.device)
	r.KernelPreamble = preamble()
	k.runner = r

	placeholder := &dycore.RunArgs{}
	placeholder.Allocate(s)
	ddO2, ddO4 := reference.DampingProfiles(a.Config, a.VctA, a.ScalfacDd3d)
	nFull, nHalf := s.NCells*s.NLevels, s.NCells*(s.NLevels+1)

	params := append(metricBindings(a), runBindings(placeholder)...)
	params = append(params,
		builder.Input("dd_o2").Bind(ddO2),
		builder.Input("dd_o4").Bind(ddO4),
		builder.Temp("ex_ex").Type(builder.Float64).Size(nFull),
		builder.Temp("rth_pr").Type(builder.Float64).Size(nFull),
		builder.Temp("flux_w").Type(builder.Float64).Size(nHalf),
		builder.Temp("flux_th").Type(builder.Float64).Size(nHalf),
		builder.Scalar("dtime").Type(builder.Float64),
		builder.Scalar("wgt_now").Type(builder.Float64),
		builder.Scalar("wgt_new").Type(builder.Float64),
		builder.Scalar("scal_o2").Type(builder.Float64),
		builder.Scalar("r_substeps").Type(builder.Float64),
		builder.Scalar("ndyn").Type(builder.Float64),
		builder.Scalar("wgt_nnow_vel").Type(builder.Float64),
		builder.Scalar("wgt_nnew_vel").Type(builder.Float64),
		builder.Scalar("first").Type(builder.INT32),
		builder.Scalar("last").Type(builder.INT32),
		builder.Scalar("prep_adv").Type(builder.INT32),
		builder.Scalar("rayleigh_klemp").Type(builder.INT32),
	)
	if err := r.DefineBindings(params...); err != nil {
		return err
	}
	if err := r.AllocateDevice(); err != nil {
		return err
	}
	for _, p := range metricBindings(a) {
		if err := r.CopyToDevice(p.Spec.Name); err != nil {
			return err
		}
	}
	for _, name := range []string{"dd_o2", "dd_o4"} {
		if err := r.CopyToDevice(name); err != nil {
			return err
		}
	}

	if _, err := r.ConfigureKernel(columnKernel,
		r.Param("rho_now"), r.Param("rho_new"),
		r.Param("exner_now"), r.Param("exner_new"),
		r.Param("theta_v_now"), r.Param("theta_v_new"),
		r.Param("w_now"), r.Param("w_new"),
		r.Param("w_concorr_c"),
		r.Param("ddt_w_adv_ntl1"), r.Param("ddt_w_adv_ntl2"),
		r.Param("theta_v_ic"), r.Param("rho_ic"),
		r.Param("exner_pr"), r.Param("exner_dyn_incr"),
		r.Param("ddt_exner_phy"),
		r.Param("grf_tend_rho"), r.Param("grf_tend_thv"), r.Param("grf_tend_w"),
		r.Param("mass_flx_ic"), r.Param("vol_flx_ic"),
		r.Param("c_owner_mask"), r.Param("mask_prog_halo_c"),
		r.Param("exner_ref_mc"), r.Param("exner_exfac"), r.Param("theta_ref_mc"),
		r.Param("wgtfac_c"), r.Param("wgtfacq_c"),
		r.Param("inv_ddqz_z_full"), r.Param("ddqz_z_half"), r.Param("d_exner_dz_ref_ic"),
		r.Param("vwind_expl_wgt"), r.Param("vwind_impl_wgt"), r.Param("rayleigh_w"),
		r.Param("dd_o2"), r.Param("dd_o4"),
		r.Param("ex_ex"), r.Param("rth_pr"), r.Param("flux_w"), r.Param("flux_th"),
		r.Param("dtime"), r.Param("wgt_now"), r.Param("wgt_new"), r.Param("scal_o2"),
		r.Param("r_substeps"), r.Param("ndyn"),
		r.Param("first"), r.Param("last"), r.Param("prep_adv"), r.Param("rayleigh_klemp"),
	); err != nil {
		return err
	}
	if _, err := r.ConfigureKernel(edgeKernel,
		r.Param("vn_now"), r.Param("vn_new"),
		r.Param("ddt_vn_apc_ntl1"), r.Param("ddt_vn_apc_ntl2"),
		r.Param("ddt_vn_phy"), r.Param("grf_tend_vn"),
		r.Param("vn_ie"), r.Param("mass_fl_e"),
		r.Param("vn_traj"), r.Param("mass_flx_me"),
		r.Param("nudgecoeff_e"), r.Param("wgtfac_e"), r.Param("wgtfacq_e"),
		r.Param("rho_ref_me"), r.Param("ddqz_z_full_e"),
		r.Param("dtime"), r.Param("wgt_now"), r.Param("wgt_new"), r.Param("r_substeps"),
		r.Param("wgt_nnow_vel"), r.Param("wgt_nnew_vel"),
		r.Param("first"), r.Param("prep_adv"),
	); err != nil {
		return err
	}

	for name, src := range map[string]string{columnKernel: columnSource, edgeKernel: edgeSource} {
		decl, err := r.GetKernelDeclarationForConfig(name)
		if err != nil {
			return err
		}
		if _, err := r.BuildKernel(fmt.Sprintf(src, decl), name); err != nil {
			return err
		}
	}
	return nil
}

// Run advances one dynamics substep on the device
func (k *Kernel) Run(a *dycore.RunArgs) int {
	if k.failed != status.OK {
		return k.failed
	}
	if !k.initialized {
		return k.fail(status.NotInitialized)
	}
	p := a.Step
	if !reference.ValidStep(p) {
		return k.fail(status.InvalidStep)
	}
	if err := dycore.CheckBindings(a.Bindings(), k.shape); err != nil {
		k.log.Debug("run rejected fields", zap.Error(err))
		return k.fail(status.InvalidStep)
	}

	for _, b := range a.Bindings() {
		if !k.runner.HasBinding(b.Name) {
			continue
		}
		if err := k.runner.Rebind(b.Name, b.Float()); err != nil {
			k.log.Error("rebind failed", zap.String("field", b.Name), zap.Error(err))
			return k.fail(status.BackendFailure)
		}
	}

	wgtNow, wgtNew := k.params.VelocityWeights(p.AtInitialTimestep)
	first := flag(p.SubstepIndex == 0)
	last := flag(p.SubstepIndex == p.NdynSubsteps-1)
	prepAdv := flag(p.PrepAdvection)
	klemp := flag(k.cfg.RayleighType == dycore.RayleighKlemp)
	rSubsteps := 1 / float64(p.NdynSubsteps)

	if err := k.runner.ExecuteKernel(columnKernel,
		p.Dtime, wgtNow, wgtNew, p.DivdampFacO2, rSubsteps, float64(p.NdynSubsteps),
		first, last, prepAdv, klemp,
	); err != nil {
		k.log.Error("column kernel failed", zap.Error(err))
		return k.fail(status.BackendFailure)
	}
	if err := k.runner.ExecuteKernel(edgeKernel,
		p.Dtime, wgtNow, wgtNew, rSubsteps, k.params.WgtNnowVel, k.params.WgtNnewVel,
		first, prepAdv,
	); err != nil {
		k.log.Error("edge kernel failed", zap.Error(err))
		return k.fail(status.BackendFailure)
	}

	for _, f := range []*field.F64{a.New.Rho, a.New.Exner, a.New.W, a.New.ThetaV, a.New.Vn} {
		if !field.IsFinite(f) {
			return k.fail(status.Unstable)
		}
	}
	return status.OK
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (k *Kernel) fail(code int) int {
	k.failed = code
	k.log.Warn("occa kernel failed", zap.Int("status", code), zap.String("reason", status.Text(code)))
	return code
}

// StatusText implements dycore.StatusDescriber
func (k *Kernel) StatusText(code int) string { return status.Text(code) }

// Free releases device memory and kernels. The kernel cannot be used again.
func (k *Kernel) Free() {
	if k.runner != nil {
		k.runner.Free()
		k.runner = nil
	}
	k.initialized = false
	k.failed = status.NotInitialized
}
