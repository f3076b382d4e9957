package dycore

import "github.com/notargets/nhsolve/field"

// InitArgs carries everything Init receives: the mesh geometry, the
// interpolation and metric coefficients, the masks and the scalar Config.
type InitArgs struct {
	VctA      *field.F64
	VctB      *field.F64
	CellAreas *field.F64

	PrimalNormalCellX *field.F64
	PrimalNormalCellY *field.F64
	DualNormalCellX   *field.F64
	DualNormalCellY   *field.F64

	EdgeAreas                  *field.F64
	TangentOrientation         *field.F64
	InversePrimalEdgeLengths   *field.F64
	InverseDualEdgeLengths     *field.F64
	InverseVertexVertexLengths *field.F64

	PrimalNormalVertX *field.F64
	PrimalNormalVertY *field.F64
	DualNormalVertX   *field.F64
	DualNormalVertY   *field.F64

	// interpolation state
	FE            *field.F64
	CLinE         *field.F64
	CIntp         *field.F64
	EFlxAvg       *field.F64
	GeofacGrdiv   *field.F64
	GeofacRot     *field.F64
	PosOnTplaneE1 *field.F64
	PosOnTplaneE2 *field.F64
	RbfVecCoeffE  *field.F64
	EBlnCS        *field.F64
	RbfCoeff1     *field.F64
	RbfCoeff2     *field.F64
	GeofacDiv     *field.F64
	GeofacN2S     *field.F64
	GeofacGrgX    *field.F64
	GeofacGrgY    *field.F64
	NudgecoeffE   *field.F64

	BdyHaloC      *field.I32
	MaskProgHaloC *field.I32

	// metric state
	RayleighW        *field.F64
	ExnerExfac       *field.F64
	ExnerRefMC       *field.F64
	WgtfacC          *field.F64
	WgtfacqC         *field.F64
	InvDdqzZFull     *field.F64
	RhoRefMC         *field.F64
	ThetaRefMC       *field.F64
	VwindExplWgt     *field.F64
	DExnerDzRefIC    *field.F64
	DdqzZHalf        *field.F64
	ThetaRefIC       *field.F64
	D2dexdz2Fac1MC   *field.F64
	D2dexdz2Fac2MC   *field.F64
	RhoRefME         *field.F64
	ThetaRefME       *field.F64
	DdxnZFull        *field.F64
	ZdiffGradp       *field.F64
	VertoffsetGradp  *field.I32
	IpeidxDsl        *field.I32
	PgExdist         *field.F64
	DdqzZFullE       *field.F64
	DdxtZFull        *field.F64
	WgtfacE          *field.F64
	WgtfacqE         *field.F64
	VwindImplWgt     *field.F64
	HmaskDd3d        *field.F64
	ScalfacDd3d      *field.F64
	Coeff1Dwdz       *field.F64
	Coeff2Dwdz       *field.F64
	CoeffGradekin    *field.F64
	COwnerMask       *field.I32
	CellCenterLat    *field.F64
	CellCenterLon    *field.F64
	EdgeCenterLat    *field.F64
	EdgeCenterLon    *field.F64
	PrimalNormalX    *field.F64
	PrimalNormalY    *field.F64

	Config Config
}

// Bindings lists every Field of the init contract in argument order
func (a *InitArgs) Bindings() []Binding {
	return []Binding{
		bindF64(&a.VctA, "vct_a", HalfLevel),
		bindF64(&a.VctB, "vct_b", HalfLevel),
		bindF64(&a.CellAreas, "cell_areas", Cell),
		bindF64(&a.PrimalNormalCellX, "primal_normal_cell_x", Edge, E2C),
		bindF64(&a.PrimalNormalCellY, "primal_normal_cell_y", Edge, E2C),
		bindF64(&a.DualNormalCellX, "dual_normal_cell_x", Edge, E2C),
		bindF64(&a.DualNormalCellY, "dual_normal_cell_y", Edge, E2C),
		bindF64(&a.EdgeAreas, "edge_areas", Edge),
		bindF64(&a.TangentOrientation, "tangent_orientation", Edge),
		bindF64(&a.InversePrimalEdgeLengths, "inverse_primal_edge_lengths", Edge),
		bindF64(&a.InverseDualEdgeLengths, "inverse_dual_edge_lengths", Edge),
		bindF64(&a.InverseVertexVertexLengths, "inverse_vertex_vertex_lengths", Edge),
		bindF64(&a.PrimalNormalVertX, "primal_normal_vert_x", Edge, ECV),
		bindF64(&a.PrimalNormalVertY, "primal_normal_vert_y", Edge, ECV),
		bindF64(&a.DualNormalVertX, "dual_normal_vert_x", Edge, ECV),
		bindF64(&a.DualNormalVertY, "dual_normal_vert_y", Edge, ECV),
		bindF64(&a.FE, "f_e", Edge),
		bindF64(&a.CLinE, "c_lin_e", Edge, E2C),
		bindF64(&a.CIntp, "c_intp", Vertex, V2C),
		bindF64(&a.EFlxAvg, "e_flx_avg", Edge, E2C2EO),
		bindF64(&a.GeofacGrdiv, "geofac_grdiv", Edge, E2C2EO),
		bindF64(&a.GeofacRot, "geofac_rot", Vertex, V2E),
		bindF64(&a.PosOnTplaneE1, "pos_on_tplane_e_1", Edge, E2C),
		bindF64(&a.PosOnTplaneE2, "pos_on_tplane_e_2", Edge, E2C),
		bindF64(&a.RbfVecCoeffE, "rbf_vec_coeff_e", Edge, E2C2E),
		bindF64(&a.EBlnCS, "e_bln_c_s", Cell, C2E),
		bindF64(&a.RbfCoeff1, "rbf_coeff_1", Vertex, V2E),
		bindF64(&a.RbfCoeff2, "rbf_coeff_2", Vertex, V2E),
		bindF64(&a.GeofacDiv, "geofac_div", Cell, C2E),
		bindF64(&a.GeofacN2S, "geofac_n2s", Cell, C2E2CO),
		bindF64(&a.GeofacGrgX, "geofac_grg_x", Cell, C2E2CO),
		bindF64(&a.GeofacGrgY, "geofac_grg_y", Cell, C2E2CO),
		bindF64(&a.NudgecoeffE, "nudgecoeff_e", Edge),
		bindI32(&a.BdyHaloC, "bdy_halo_c", Cell),
		bindI32(&a.MaskProgHaloC, "mask_prog_halo_c", Cell),
		bindF64(&a.RayleighW, "rayleigh_w", HalfLevel),
		bindF64(&a.ExnerExfac, "exner_exfac", Cell, Level),
		bindF64(&a.ExnerRefMC, "exner_ref_mc", Cell, Level),
		bindF64(&a.WgtfacC, "wgtfac_c", Cell, HalfLevel),
		bindF64(&a.WgtfacqC, "wgtfacq_c", Cell, Wgtfacq),
		bindF64(&a.InvDdqzZFull, "inv_ddqz_z_full", Cell, Level),
		bindF64(&a.RhoRefMC, "rho_ref_mc", Cell, Level),
		bindF64(&a.ThetaRefMC, "theta_ref_mc", Cell, Level),
		bindF64(&a.VwindExplWgt, "vwind_expl_wgt", Cell),
		bindF64(&a.DExnerDzRefIC, "d_exner_dz_ref_ic", Cell, HalfLevel),
		bindF64(&a.DdqzZHalf, "ddqz_z_half", Cell, HalfLevel),
		bindF64(&a.ThetaRefIC, "theta_ref_ic", Cell, HalfLevel),
		bindF64(&a.D2dexdz2Fac1MC, "d2dexdz2_fac1_mc", Cell, Level),
		bindF64(&a.D2dexdz2Fac2MC, "d2dexdz2_fac2_mc", Cell, Level),
		bindF64(&a.RhoRefME, "rho_ref_me", Edge, Level),
		bindF64(&a.ThetaRefME, "theta_ref_me", Edge, Level),
		bindF64(&a.DdxnZFull, "ddxn_z_full", Edge, Level),
		bindF64(&a.ZdiffGradp, "zdiff_gradp", Edge, E2C, Level),
		bindI32(&a.VertoffsetGradp, "vertoffset_gradp", Edge, E2C, Level),
		bindI32(&a.IpeidxDsl, "ipeidx_dsl", Edge, Level),
		bindF64(&a.PgExdist, "pg_exdist", Edge, Level),
		bindF64(&a.DdqzZFullE, "ddqz_z_full_e", Edge, Level),
		bindF64(&a.DdxtZFull, "ddxt_z_full", Edge, Level),
		bindF64(&a.WgtfacE, "wgtfac_e", Edge, HalfLevel),
		bindF64(&a.WgtfacqE, "wgtfacq_e", Edge, Wgtfacq),
		bindF64(&a.VwindImplWgt, "vwind_impl_wgt", Cell),
		bindF64(&a.HmaskDd3d, "hmask_dd3d", Edge),
		bindF64(&a.ScalfacDd3d, "scalfac_dd3d", Level),
		bindF64(&a.Coeff1Dwdz, "coeff1_dwdz", Cell, Level),
		bindF64(&a.Coeff2Dwdz, "coeff2_dwdz", Cell, Level),
		bindF64(&a.CoeffGradekin, "coeff_gradekin", Edge, E2C),
		bindI32(&a.COwnerMask, "c_owner_mask", Cell),
		bindF64(&a.CellCenterLat, "cell_center_lat", Cell),
		bindF64(&a.CellCenterLon, "cell_center_lon", Cell),
		bindF64(&a.EdgeCenterLat, "edge_center_lat", Edge),
		bindF64(&a.EdgeCenterLon, "edge_center_lon", Edge),
		bindF64(&a.PrimalNormalX, "primal_normal_x", Edge),
		bindF64(&a.PrimalNormalY, "primal_normal_y", Edge),
	}
}

// Scalars returns the configuration scalars in argument order. Flags travel
// as int, ndyn_substeps as double.
func (c Config) Scalars() []field.Argument {
	return []field.Argument{
		field.Float("rayleigh_damping_height", c.RayleighDampingHeight),
		field.Int("itime_scheme", int(c.TimeScheme)),
		field.Int("iadv_rhotheta", int(c.RhoThetaAdvection)),
		field.Int("igradp_method", int(c.GradpMethod)),
		field.Float("ndyn_substeps", float64(c.NdynSubsteps)),
		field.Int("rayleigh_type", int(c.RayleighType)),
		field.Float("rayleigh_coeff", c.RayleighCoeff),
		field.Int("divdamp_order", int(c.DivdampOrder)),
		field.Bool("is_iau_active", c.IAUActive),
		field.Float("iau_wgt_dyn", c.IAUWgtDyn),
		field.Int("divdamp_type", int(c.DivdampType)),
		field.Float("divdamp_trans_start", c.DivdampTransStart),
		field.Float("divdamp_trans_end", c.DivdampTransEnd),
		field.Bool("l_vert_nested", c.VertNested),
		field.Float("rhotheta_offctr", c.RhoThetaOffctr),
		field.Float("veladv_offctr", c.VelAdvOffctr),
		field.Float("max_nudging_coeff", c.MaxNudgingCoeff),
		field.Float("divdamp_fac", c.DivdampFac),
		field.Float("divdamp_fac2", c.DivdampFac2),
		field.Float("divdamp_fac3", c.DivdampFac3),
		field.Float("divdamp_fac4", c.DivdampFac4),
		field.Float("divdamp_z", c.DivdampZ),
		field.Float("divdamp_z2", c.DivdampZ2),
		field.Float("divdamp_z3", c.DivdampZ3),
		field.Float("divdamp_z4", c.DivdampZ4),
		field.Float("lowest_layer_thickness", c.LowestLayerThickness),
		field.Float("model_top_height", c.ModelTopHeight),
		field.Float("stretch_factor", c.StretchFactor),
		field.Float("mean_cell_area", c.MeanCellArea),
		field.Int("nflat_gradp", c.NflatGradp),
		field.Int("num_levels", c.NumLevels),
	}
}

// Arguments flattens the init contract: every Field as pointer plus
// extents, then the configuration scalars.
func (a *InitArgs) Arguments() []field.Argument {
	return append(flatten(a.Bindings()), a.Config.Scalars()...)
}

// Allocate attaches zeroed Fields sized for shape to every binding
func (a *InitArgs) Allocate(s Shape) {
	allocate(a.Bindings(), s)
}

// InferShape reads the instance sizes from the geometry Fields
func (a *InitArgs) InferShape() (Shape, bool) {
	if a.CellAreas == nil || a.EdgeAreas == nil || a.CIntp == nil || a.VctA == nil ||
		a.CellAreas.Rank() != 1 || a.EdgeAreas.Rank() != 1 || a.CIntp.Rank() != 2 || a.VctA.Rank() != 1 {
		return Shape{}, false
	}
	return Shape{
		NCells:  a.CellAreas.Size(0),
		NEdges:  a.EdgeAreas.Size(0),
		NVerts:  a.CIntp.Size(0),
		NLevels: a.VctA.Size(0) - 1,
	}, true
}
