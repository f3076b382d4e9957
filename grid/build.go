package grid

import (
	"fmt"
	"math"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
)

// Masks are the per-cell ownership masks of one partition. A nil *Masks
// means the whole mesh is owned.
type Masks struct {
	COwner   []int32
	BdyHalo  []int32
	ProgHalo []int32
}

// BuildInitArgs fills every Field of the init contract for a flat, uniform
// mesh at rest in the reference atmosphere. num_levels and mean_cell_area
// in cfg are replaced by the values the mesh and the vertical grid define.
func BuildInitArgs(m *Mesh, v *VerticalGrid, atm ReferenceAtmosphere, cfg dycore.Config, masks *Masks) (*dycore.InitArgs, error) {
	cfg.NumLevels = v.NLevels
	cfg.MeanCellArea = m.MeanCellArea()
	shape := Shape(m, v)
	a := &dycore.InitArgs{Config: cfg}
	a.Allocate(shape)

	copy(a.VctA.Data, v.VctA)
	copy(a.VctB.Data, v.VctB)
	fillHorizontal(a, m)
	if err := fillMasks(a, m, masks); err != nil {
		return nil, err
	}
	if err := fillMetrics(a, v, atm); err != nil {
		return nil, err
	}
	copy(a.RayleighW.Data, v.RayleighW)
	return a, nil
}

// Shape returns the solver instance size of a mesh and vertical grid
func Shape(m *Mesh, v *VerticalGrid) dycore.Shape {
	return dycore.Shape{NCells: m.NCells, NEdges: m.NEdges, NVerts: m.NVerts, NLevels: v.NLevels}
}

func fillHorizontal(a *dycore.InitArgs, m *Mesh) {
	L, dual := m.EdgeLength, m.DualEdgeLength
	area := m.CellArea
	invDual := 1 / dual

	a.CellAreas.Fill(area)
	a.EdgeAreas.Fill(0.5 * L * dual)
	a.TangentOrientation.Fill(1)
	a.InversePrimalEdgeLengths.Fill(1 / L)
	a.InverseDualEdgeLengths.Fill(invDual)
	a.InverseVertexVertexLengths.Fill(1 / (L * math.Sqrt(3)))

	for e := 0; e < m.NEdges; e++ {
		nx, ny := m.NormalX[e], m.NormalY[e]
		tx, ty := -ny, nx
		for j := 0; j < 2; j++ {
			a.PrimalNormalCellX.Set(nx, e, j)
			a.PrimalNormalCellY.Set(ny, e, j)
			a.DualNormalCellX.Set(tx, e, j)
			a.DualNormalCellY.Set(ty, e, j)
			a.CLinE.Set(0.5, e, j)
			a.CoeffGradekin.Set(invDual, e, j)
		}
		a.PosOnTplaneE1.Set(-dual/2, e, 0)
		a.PosOnTplaneE1.Set(dual/2, e, 1)
		for j := 0; j < 4; j++ {
			a.PrimalNormalVertX.Set(nx, e, j)
			a.PrimalNormalVertY.Set(ny, e, j)
			a.DualNormalVertX.Set(tx, e, j)
			a.DualNormalVertY.Set(ty, e, j)
		}
		a.PrimalNormalX.Data[e], a.PrimalNormalY.Data[e] = nx, ny
		a.EdgeCenterLon.Data[e] = m.EdgeX[e] / EarthRadius
		a.EdgeCenterLat.Data[e] = m.EdgeY[e] / EarthRadius

		a.EFlxAvg.Set(0.5, e, 0)
		others := otherEdges(m, e)
		c0, c1 := m.E2C[e][0], m.E2C[e][1]
		a.GeofacGrdiv.Set((geofacDiv(m, c1, e)-geofacDiv(m, c0, e))*invDual, e, 0)
		for j, o := range others {
			a.EFlxAvg.Set(0.125, e, j+1)
			c := c0
			sign := -1.0
			if j >= 2 {
				c, sign = c1, 1
			}
			a.GeofacGrdiv.Set(sign*geofacDiv(m, c, o)*invDual, e, j+1)
			// tangential wind from the normal winds of the diamond edges
			tangent := m.NormalX[o]*tx + m.NormalY[o]*ty
			a.RbfVecCoeffE.Set(tangent/2, e, j)
		}
	}

	for c := 0; c < m.NCells; c++ {
		a.CellCenterLon.Data[c] = m.CellX[c] / EarthRadius
		a.CellCenterLat.Data[c] = m.CellY[c] / EarthRadius
		var n2sSelf float64
		for j, e := range m.C2E[c] {
			a.EBlnCS.Set(1.0/3, c, j)
			a.GeofacDiv.Set(geofacDiv(m, c, e), c, j)
			n2s := L * invDual / area
			a.GeofacN2S.Set(n2s, c, j+1)
			n2sSelf -= n2s
			o := m.Orientation(c, e)
			a.GeofacGrgX.Set(0.5*L/area*o*m.NormalX[e], c, j+1)
			a.GeofacGrgY.Set(0.5*L/area*o*m.NormalY[e], c, j+1)
		}
		a.GeofacN2S.Set(n2sSelf, c, 0)
	}

	dualArea := 2 * area
	for v := 0; v < m.NVerts; v++ {
		for j := 0; j < 6; j++ {
			a.CIntp.Set(1.0/6, v, j)
			e := m.V2E[v][j]
			sign := 1.0
			if m.E2V[e][1] == v {
				sign = -1
			}
			a.GeofacRot.Set(sign*dual/dualArea, v, j)
			a.RbfCoeff1.Set(m.NormalX[e]/3, v, j)
			a.RbfCoeff2.Set(m.NormalY[e]/3, v, j)
		}
	}
}

// geofacDiv is the divergence weight of edge e in cell c
func geofacDiv(m *Mesh, c, e int) float64 {
	return m.EdgeLength * m.Orientation(c, e) / m.CellArea
}

// otherEdges lists the two remaining edges of each adjacent cell
func otherEdges(m *Mesh, e int) [4]int {
	var out [4]int
	n := 0
	for side := 0; side < 2; side++ {
		for _, o := range m.C2E[m.E2C[e][side]] {
			if o != e && n < 2*(side+1) {
				out[n] = o
				n++
			}
		}
		for n < 2*(side+1) {
			out[n] = e
			n++
		}
	}
	return out
}

func fillMasks(a *dycore.InitArgs, m *Mesh, masks *Masks) error {
	if masks == nil {
		a.COwnerMask.Fill(1)
		return nil
	}
	for name, src := range map[string][]int32{"c_owner_mask": masks.COwner,
		"bdy_halo_c": masks.BdyHalo, "mask_prog_halo_c": masks.ProgHalo} {
		if len(src) != m.NCells {
			return fmt.Errorf("%s has %d entries for %d cells", name, len(src), m.NCells)
		}
	}
	copy(a.COwnerMask.Data, masks.COwner)
	copy(a.BdyHaloC.Data, masks.BdyHalo)
	copy(a.MaskProgHaloC.Data, masks.ProgHalo)
	return nil
}

func fillMetrics(a *dycore.InitArgs, v *VerticalGrid, atm ReferenceAtmosphere) error {
	nlev := v.NLevels
	impl := v.ImplicitWeight()
	a.VwindImplWgt.Fill(impl)
	a.VwindExplWgt.Fill(1 - impl)
	a.ScalfacDd3d.Fill(1)
	a.ExnerExfac.Fill(1.0 / 3)
	a.HmaskDd3d.Fill(1)

	full := func(fn func(k int) float64) []float64 {
		out := make([]float64, nlev)
		for k := range out {
			out[k] = fn(k)
		}
		return out
	}
	half := func(fn func(z float64) float64) []float64 {
		out := make([]float64, nlev+1)
		for h := range out {
			out[h] = fn(v.VctA[h])
		}
		return out
	}
	atFull := func(fn func(z float64) float64) []float64 {
		return full(func(k int) float64 { return fn(v.ZFull[k]) })
	}
	coeff1, coeff2 := make([]float64, nlev), make([]float64, nlev)
	for k := 1; k < nlev; k++ {
		d0, d1 := v.DzFull[k-1], v.DzFull[k]
		coeff1[k] = d1 / (d0 * (d0 + d1))
		coeff2[k] = d0 / (d1 * (d0 + d1))
	}
	g, cp := dycore.GRAV, dycore.CPD

	profiles := []struct {
		f       *field.F64
		profile []float64
	}{
		{a.InvDdqzZFull, full(func(k int) float64 { return 1 / v.DzFull[k] })},
		{a.ExnerRefMC, atFull(atm.Exner)},
		{a.RhoRefMC, atFull(atm.Rho)},
		{a.ThetaRefMC, atFull(atm.Theta)},
		{a.D2dexdz2Fac1MC, atFull(func(z float64) float64 {
			th := atm.Theta(z)
			return -g / (cp * th * th) * atm.DThetaDz(z)
		})},
		{a.D2dexdz2Fac2MC, atFull(func(z float64) float64 {
			th := atm.Theta(z)
			return 2 * g * g / (cp * cp * th * th * th)
		})},
		{a.Coeff1Dwdz, coeff1},
		{a.Coeff2Dwdz, coeff2},
		{a.WgtfacC, v.WgtfacC},
		{a.DdqzZHalf, v.DzHalf},
		{a.ThetaRefIC, half(atm.Theta)},
		{a.DExnerDzRefIC, half(atm.DExnerDz)},
		{a.WgtfacqC, v.WgtfacqC[:]},
		{a.RhoRefME, atFull(atm.Rho)},
		{a.ThetaRefME, atFull(atm.Theta)},
		{a.DdqzZFullE, v.DzFull},
		{a.WgtfacE, v.WgtfacC},
		{a.WgtfacqE, v.WgtfacqC[:]},
	}
	for _, p := range profiles {
		if err := setColumns(p.f, p.profile); err != nil {
			return err
		}
	}
	return nil
}

// setColumns writes the same vertical profile into every row of a rank-2
// Field. Empty Fields are left alone.
func setColumns(f *field.F64, profile []float64) error {
	if f.Len() == 0 {
		return nil
	}
	rows, err := field.Matrix(f)
	if err != nil {
		return err
	}
	if _, cols := rows.Dims(); cols != len(profile) {
		return fmt.Errorf("profile has %d levels, field has %d", len(profile), cols)
	}
	for r := 0; r < f.Extents[0]; r++ {
		rows.SetRow(r, profile)
	}
	return nil
}

// BuildRunArgs allocates the run Fields with the reference state in the
// current time level, copied to the new one, no vertical motion and zero
// tendencies.
func BuildRunArgs(m *Mesh, v *VerticalGrid, atm ReferenceAtmosphere, step dycore.StepParams) *dycore.RunArgs {
	r := &dycore.RunArgs{Step: step}
	r.Allocate(Shape(m, v))
	full := func(fn func(z float64) float64) []float64 {
		out := make([]float64, v.NLevels)
		for k, z := range v.ZFull {
			out[k] = fn(z)
		}
		return out
	}
	half := func(fn func(z float64) float64) []float64 {
		out := make([]float64, v.NLevels+1)
		for h, z := range v.VctA {
			out[h] = fn(z)
		}
		return out
	}
	// Shapes come from Allocate, so the profiles always fit
	_ = setColumns(r.Now.Rho, full(atm.Rho))
	_ = setColumns(r.Now.Exner, full(atm.Exner))
	_ = setColumns(r.Now.ThetaV, full(atm.Theta))
	_ = setColumns(r.ThetaVIC, half(atm.Theta))
	_ = setColumns(r.RhoIC, half(atm.Rho))
	for e := 0; e < m.NEdges; e++ {
		vn, vt := r.Now.Vn.Row(e), r.Vt.Row(e)
		for k := 0; k < v.NLevels; k++ {
			vn[k] = atm.U0 * m.NormalX[e]
			vt[k] = -atm.U0 * m.NormalY[e]
		}
	}
	_ = r.CopyNowToNew()
	return r
}

// Forcing imposes horizontally and vertically uniform tendencies
type Forcing struct {
	DdtVnPhy    float64
	DdtExnerPhy float64
	GrfTendRho  float64
	GrfTendThv  float64
	GrfTendW    float64
	GrfTendVn   float64
}

// Apply writes the tendencies into r. Surface and top w tendencies stay zero.
func (f Forcing) Apply(r *dycore.RunArgs) {
	r.DdtVnPhy.Fill(f.DdtVnPhy)
	r.DdtExnerPhy.Fill(f.DdtExnerPhy)
	r.GrfTendRho.Fill(f.GrfTendRho)
	r.GrfTendThv.Fill(f.GrfTendThv)
	r.GrfTendVn.Fill(f.GrfTendVn)
	r.GrfTendW.Fill(0)
	nhalf := r.GrfTendW.Size(1)
	for c := 0; c < r.GrfTendW.Size(0); c++ {
		row := r.GrfTendW.Row(c)
		for h := 1; h < nhalf-1; h++ {
			row[h] = f.GrfTendW
		}
	}
}
