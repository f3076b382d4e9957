package reference

import (
	"fmt"
	"math"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
)

// metrics is the part of the init contract the column scheme reads. Every
// Field is a private copy taken at Init.
type metrics struct {
	vctA          *field.F64
	invDdqzZFull  *field.F64
	ddqzZHalf     *field.F64
	wgtfacC       *field.F64
	wgtfacqC      *field.F64
	exnerRefMC    *field.F64
	exnerExfac    *field.F64
	thetaRefMC    *field.F64
	dExnerDzRefIC *field.F64
	vwindExplWgt  *field.F64
	vwindImplWgt  *field.F64
	rayleighW     *field.F64
	scalfacDd3d   *field.F64
	nudgecoeffE   *field.F64
	wgtfacE       *field.F64
	wgtfacqE      *field.F64
	ddqzZFullE    *field.F64
	rhoRefME      *field.F64
	cOwnerMask    *field.I32
	maskProgHaloC *field.I32
}

func copyMetrics(a *dycore.InitArgs) metrics {
	return metrics{
		vctA:          a.VctA.Clone(),
		invDdqzZFull:  a.InvDdqzZFull.Clone(),
		ddqzZHalf:     a.DdqzZHalf.Clone(),
		wgtfacC:       a.WgtfacC.Clone(),
		wgtfacqC:      a.WgtfacqC.Clone(),
		exnerRefMC:    a.ExnerRefMC.Clone(),
		exnerExfac:    a.ExnerExfac.Clone(),
		thetaRefMC:    a.ThetaRefMC.Clone(),
		dExnerDzRefIC: a.DExnerDzRefIC.Clone(),
		vwindExplWgt:  a.VwindExplWgt.Clone(),
		vwindImplWgt:  a.VwindImplWgt.Clone(),
		rayleighW:     a.RayleighW.Clone(),
		scalfacDd3d:   a.ScalfacDd3d.Clone(),
		nudgecoeffE:   a.NudgecoeffE.Clone(),
		wgtfacE:       a.WgtfacE.Clone(),
		wgtfacqE:      a.WgtfacqE.Clone(),
		ddqzZFullE:    a.DdqzZFullE.Clone(),
		rhoRefME:      a.RhoRefME.Clone(),
		cOwnerMask:    a.COwnerMask.Clone(),
		maskProgHaloC: a.MaskProgHaloC.Clone(),
	}
}

// CheckGeometry rejects metric fields the scheme cannot integrate with
func CheckGeometry(a *dycore.InitArgs, s dycore.Shape) error {
	if err := dycore.CheckBindings(a.Bindings(), s); err != nil {
		return err
	}
	for name, f := range map[string]*field.F64{
		"cell_areas": a.CellAreas, "edge_areas": a.EdgeAreas,
		"inv_ddqz_z_full": a.InvDdqzZFull, "ddqz_z_half": a.DdqzZHalf,
		"ddqz_z_full_e": a.DdqzZFullE, "theta_ref_mc": a.ThetaRefMC, "exner_ref_mc": a.ExnerRefMC,
	} {
		for i, v := range f.Data {
			if !(v > 0) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d] = %g, must be positive", name, i, v)
			}
		}
	}
	for k := 1; k < len(a.VctA.Data); k++ {
		if !(a.VctA.Data[k] < a.VctA.Data[k-1]) {
			return fmt.Errorf("vct_a must decrease from model top to surface at level %d", k)
		}
	}
	for name, f := range map[string]*field.I32{
		"bdy_halo_c": a.BdyHaloC, "mask_prog_halo_c": a.MaskProgHaloC,
		"c_owner_mask": a.COwnerMask, "ipeidx_dsl": a.IpeidxDsl,
	} {
		for i, v := range f.Data {
			if v != 0 && v != 1 {
				return fmt.Errorf("%s[%d] = %d, mask values are 0 or 1", name, i, v)
			}
		}
	}
	for c := 0; c < s.NCells; c++ {
		sum := a.VwindExplWgt.Data[c] + a.VwindImplWgt.Data[c]
		if math.Abs(sum-1) > 1e-12 {
			return fmt.Errorf("vwind weights of cell %d sum to %g", c, sum)
		}
	}
	for i, v := range a.RayleighW.Data {
		if v < 0 {
			return fmt.Errorf("rayleigh_w[%d] = %g is negative", i, v)
		}
	}
	nlev := int32(s.NLevels)
	off := a.VertoffsetGradp
	for e := 0; e < s.NEdges; e++ {
		for j := 0; j < dycore.E2C.Extent(s); j++ {
			for k := 0; k < s.NLevels; k++ {
				if kk := int32(k) + off.At(e, j, k); kk < 0 || kk >= nlev {
					return fmt.Errorf("vertoffset_gradp at edge %d level %d leaves the column", e, k)
				}
			}
		}
	}
	return nil
}
