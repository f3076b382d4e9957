package dycore

import "github.com/notargets/nhsolve/field"

// PrognosticState is one time level of the prognostic variables
type PrognosticState struct {
	Rho    *field.F64 // (Cell, Level)
	Exner  *field.F64 // (Cell, Level)
	W      *field.F64 // (Cell, HalfLevel)
	ThetaV *field.F64 // (Cell, Level)
	Vn     *field.F64 // (Edge, Level)
}

// StepParams are the per-call scalars of Run
type StepParams struct {
	Dtime             float64
	PrepAdvection     bool
	AtInitialTimestep bool
	DivdampFacO2      float64
	NdynSubsteps      int
	SubstepIndex      int
}

// RunArgs carries everything one Run call receives. Now is read, New is
// overwritten in place.
type RunArgs struct {
	Now PrognosticState
	New PrognosticState

	WConcorrC    *field.F64
	DdtVnApcNtl1 *field.F64
	DdtVnApcNtl2 *field.F64
	DdtWAdvNtl1  *field.F64
	DdtWAdvNtl2  *field.F64
	ThetaVIC     *field.F64
	RhoIC        *field.F64
	ExnerPr      *field.F64
	ExnerDynIncr *field.F64
	DdtExnerPhy  *field.F64
	GrfTendRho   *field.F64
	GrfTendThv   *field.F64
	GrfTendW     *field.F64
	MassFlE      *field.F64
	DdtVnPhy     *field.F64
	GrfTendVn    *field.F64
	VnIE         *field.F64
	Vt           *field.F64
	MassFlxME    *field.F64
	MassFlxIC    *field.F64
	VolFlxIC     *field.F64
	VnTraj       *field.F64

	Step StepParams
}

// Bindings lists every Field of the run contract in argument order
func (a *RunArgs) Bindings() []Binding {
	return []Binding{
		bindF64(&a.Now.Rho, "rho_now", Cell, Level),
		bindF64(&a.New.Rho, "rho_new", Cell, Level),
		bindF64(&a.Now.Exner, "exner_now", Cell, Level),
		bindF64(&a.New.Exner, "exner_new", Cell, Level),
		bindF64(&a.Now.W, "w_now", Cell, HalfLevel),
		bindF64(&a.New.W, "w_new", Cell, HalfLevel),
		bindF64(&a.Now.ThetaV, "theta_v_now", Cell, Level),
		bindF64(&a.New.ThetaV, "theta_v_new", Cell, Level),
		bindF64(&a.Now.Vn, "vn_now", Edge, Level),
		bindF64(&a.New.Vn, "vn_new", Edge, Level),
		bindF64(&a.WConcorrC, "w_concorr_c", Cell, HalfLevel),
		bindF64(&a.DdtVnApcNtl1, "ddt_vn_apc_ntl1", Edge, Level),
		bindF64(&a.DdtVnApcNtl2, "ddt_vn_apc_ntl2", Edge, Level),
		bindF64(&a.DdtWAdvNtl1, "ddt_w_adv_ntl1", Cell, HalfLevel),
		bindF64(&a.DdtWAdvNtl2, "ddt_w_adv_ntl2", Cell, HalfLevel),
		bindF64(&a.ThetaVIC, "theta_v_ic", Cell, HalfLevel),
		bindF64(&a.RhoIC, "rho_ic", Cell, HalfLevel),
		bindF64(&a.ExnerPr, "exner_pr", Cell, Level),
		bindF64(&a.ExnerDynIncr, "exner_dyn_incr", Cell, Level),
		bindF64(&a.DdtExnerPhy, "ddt_exner_phy", Cell, Level),
		bindF64(&a.GrfTendRho, "grf_tend_rho", Cell, Level),
		bindF64(&a.GrfTendThv, "grf_tend_thv", Cell, Level),
		bindF64(&a.GrfTendW, "grf_tend_w", Cell, HalfLevel),
		bindF64(&a.MassFlE, "mass_fl_e", Edge, Level),
		bindF64(&a.DdtVnPhy, "ddt_vn_phy", Edge, Level),
		bindF64(&a.GrfTendVn, "grf_tend_vn", Edge, Level),
		bindF64(&a.VnIE, "vn_ie", Edge, HalfLevel),
		bindF64(&a.Vt, "vt", Edge, Level),
		bindF64(&a.MassFlxME, "mass_flx_me", Edge, Level),
		bindF64(&a.MassFlxIC, "mass_flx_ic", Cell, HalfLevel),
		bindF64(&a.VolFlxIC, "vol_flx_ic", Cell, HalfLevel),
		bindF64(&a.VnTraj, "vn_traj", Edge, Level),
	}
}

// Scalars returns the step parameters in argument order
func (p StepParams) Scalars() []field.Argument {
	return []field.Argument{
		field.Float("dtime", p.Dtime),
		field.Bool("lprep_adv", p.PrepAdvection),
		field.Bool("at_initial_timestep", p.AtInitialTimestep),
		field.Float("divdamp_fac_o2", p.DivdampFacO2),
		field.Float("ndyn_substeps", float64(p.NdynSubsteps)),
		field.Int("idyn_timestep", p.SubstepIndex),
	}
}

// Arguments flattens the run contract
func (a *RunArgs) Arguments() []field.Argument {
	return append(flatten(a.Bindings()), a.Step.Scalars()...)
}

// Allocate attaches zeroed Fields sized for shape to every binding
func (a *RunArgs) Allocate(s Shape) {
	allocate(a.Bindings(), s)
}

// Swap promotes the new time level to now. The old now storage becomes the
// next new buffer, so no Field is reallocated.
func (a *RunArgs) Swap() {
	a.Now, a.New = a.New, a.Now
}

// CopyNowToNew seeds the new time level with the current state
func (a *RunArgs) CopyNowToNew() error {
	pairs := [][2]*field.F64{
		{a.New.Rho, a.Now.Rho}, {a.New.Exner, a.Now.Exner}, {a.New.W, a.Now.W},
		{a.New.ThetaV, a.Now.ThetaV}, {a.New.Vn, a.Now.Vn},
	}
	for _, p := range pairs {
		if err := p[0].CopyFrom(p[1]); err != nil {
			return err
		}
	}
	return nil
}
