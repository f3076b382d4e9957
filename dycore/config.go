package dycore

import (
	"errors"
	"fmt"
	"math"
)

// TimeScheme selects the predictor-corrector weighting (itime_scheme)
type TimeScheme int

const (
	TimeSchemeContravariantVertical TimeScheme = 4
	TimeSchemeMostEfficient         TimeScheme = 5
	TimeSchemeAverageBoth           TimeScheme = 6
)

// RhoThetaAdvection selects the rho/theta edge reconstruction (iadv_rhotheta)
type RhoThetaAdvection int

const (
	RhoThetaSimple     RhoThetaAdvection = 1
	RhoThetaMiura      RhoThetaAdvection = 2
	RhoThetaMiuraThird RhoThetaAdvection = 3
)

// GradpMethod selects the horizontal pressure gradient discretisation
type GradpMethod int

const (
	GradpNoTaylor      GradpMethod = 1
	GradpTaylor        GradpMethod = 2
	GradpTaylorHydro   GradpMethod = 3
	GradpPolynomial    GradpMethod = 4
	GradpPolynomialHyd GradpMethod = 5
)

// RayleighType selects the sponge layer formulation
type RayleighType int

const (
	RayleighClassic RayleighType = 1
	RayleighKlemp   RayleighType = 2
)

// DivdampOrder selects the divergence damping operator
type DivdampOrder int

const (
	DivdampSecond   DivdampOrder = 2
	DivdampFourth   DivdampOrder = 4
	DivdampCombined DivdampOrder = 24
)

// DivdampType selects 2-D, 3-D or blended divergence damping
type DivdampType int

const (
	Divdamp2D     DivdampType = 2
	Divdamp3D     DivdampType = 3
	Divdamp3DTo2D DivdampType = 32
)

var errConfig = errors.New("dycore: invalid configuration")

// Config is the scalar configuration passed to Init, in the field order of the
// init contract.
type Config struct {
	RayleighDampingHeight float64           `yaml:"rayleigh_damping_height"`
	TimeScheme            TimeScheme        `yaml:"itime_scheme"`
	RhoThetaAdvection     RhoThetaAdvection `yaml:"iadv_rhotheta"`
	GradpMethod           GradpMethod       `yaml:"igradp_method"`
	NdynSubsteps          int               `yaml:"ndyn_substeps"`
	RayleighType          RayleighType      `yaml:"rayleigh_type"`
	RayleighCoeff         float64           `yaml:"rayleigh_coeff"`
	DivdampOrder          DivdampOrder      `yaml:"divdamp_order"`
	IAUActive             bool              `yaml:"is_iau_active"`
	IAUWgtDyn             float64           `yaml:"iau_wgt_dyn"`
	DivdampType           DivdampType       `yaml:"divdamp_type"`
	DivdampTransStart     float64           `yaml:"divdamp_trans_start"`
	DivdampTransEnd       float64           `yaml:"divdamp_trans_end"`
	VertNested            bool              `yaml:"l_vert_nested"`
	// Logged but unused: the single stage column update has no predictor
	// rho and theta to off-center between.
	RhoThetaOffctr        float64           `yaml:"rhotheta_offctr"`
	VelAdvOffctr          float64           `yaml:"veladv_offctr"`
	MaxNudgingCoeff       float64           `yaml:"max_nudging_coeff"`
	DivdampFac            float64           `yaml:"divdamp_fac"`
	DivdampFac2           float64           `yaml:"divdamp_fac2"`
	DivdampFac3           float64           `yaml:"divdamp_fac3"`
	DivdampFac4           float64           `yaml:"divdamp_fac4"`
	DivdampZ              float64           `yaml:"divdamp_z"`
	DivdampZ2             float64           `yaml:"divdamp_z2"`
	DivdampZ3             float64           `yaml:"divdamp_z3"`
	DivdampZ4             float64           `yaml:"divdamp_z4"`
	LowestLayerThickness  float64           `yaml:"lowest_layer_thickness"`
	ModelTopHeight        float64           `yaml:"model_top_height"`
	StretchFactor         float64           `yaml:"stretch_factor"`
	MeanCellArea          float64           `yaml:"mean_cell_area"`
	NflatGradp            int               `yaml:"nflat_gradp"`
	NumLevels             int               `yaml:"num_levels"`
}

// DefaultConfig returns the namelist defaults of the operational setup on a
// 10 level column.
func DefaultConfig() Config {
	return Config{
		RayleighDampingHeight: 12500,
		TimeScheme:            TimeSchemeContravariantVertical,
		RhoThetaAdvection:     RhoThetaMiura,
		GradpMethod:           GradpTaylorHydro,
		NdynSubsteps:          DefaultPhysicsDynamicsTimestepRatio,
		RayleighType:          RayleighKlemp,
		RayleighCoeff:         0.05,
		DivdampOrder:          DivdampCombined,
		IAUWgtDyn:             0,
		DivdampType:           Divdamp3D,
		DivdampTransStart:     12500,
		DivdampTransEnd:       17500,
		RhoThetaOffctr:        -0.1,
		VelAdvOffctr:          0.25,
		MaxNudgingCoeff:       0.02,
		DivdampFac:            0.0025,
		DivdampFac2:           0.004,
		DivdampFac3:           0.004,
		DivdampFac4:           0.004,
		DivdampZ:              32500,
		DivdampZ2:             40000,
		DivdampZ3:             60000,
		DivdampZ4:             80000,
		LowestLayerThickness:  50,
		ModelTopHeight:        23500,
		StretchFactor:         1.0,
		MeanCellArea:          1.0e6,
		NflatGradp:            0,
		NumLevels:             10,
	}
}

// Validate rejects configurations no kernel in this module supports
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", errConfig, fmt.Sprintf(format, args...))
	}
	switch c.TimeScheme {
	case TimeSchemeContravariantVertical, TimeSchemeMostEfficient, TimeSchemeAverageBoth:
	default:
		return fail("itime_scheme %d not supported", c.TimeScheme)
	}
	switch c.RhoThetaAdvection {
	case RhoThetaSimple, RhoThetaMiura, RhoThetaMiuraThird:
	default:
		return fail("iadv_rhotheta %d not supported", c.RhoThetaAdvection)
	}
	switch c.GradpMethod {
	case GradpNoTaylor, GradpTaylor, GradpTaylorHydro:
	case GradpPolynomial, GradpPolynomialHyd:
		return fail("igradp_method 4 and 5 not implemented")
	default:
		return fail("igradp_method %d unknown", c.GradpMethod)
	}
	switch c.RayleighType {
	case RayleighClassic, RayleighKlemp:
	default:
		return fail("rayleigh_type %d unknown", c.RayleighType)
	}
	switch c.DivdampOrder {
	case DivdampSecond, DivdampFourth, DivdampCombined:
	default:
		return fail("divdamp_order %d unknown", c.DivdampOrder)
	}
	switch c.DivdampType {
	case Divdamp2D, Divdamp3D, Divdamp3DTo2D:
	default:
		return fail("divdamp_type %d unknown", c.DivdampType)
	}
	if c.VertNested {
		return fail("vertical nesting support not implemented")
	}
	if c.NdynSubsteps < 1 {
		return fail("ndyn_substeps must be at least 1, got %d", c.NdynSubsteps)
	}
	if c.NumLevels < 1 {
		return fail("num_levels must be at least 1, got %d", c.NumLevels)
	}
	if c.NflatGradp < 0 || c.NflatGradp > c.NumLevels {
		return fail("nflat_gradp %d outside [0, %d]", c.NflatGradp, c.NumLevels)
	}
	if c.IAUWgtDyn < 0 || c.IAUWgtDyn > 1 {
		return fail("iau_wgt_dyn %g outside [0, 1]", c.IAUWgtDyn)
	}
	if !(c.DivdampZ < c.DivdampZ2 && c.DivdampZ2 < c.DivdampZ3 && c.DivdampZ3 < c.DivdampZ4) {
		return fail("divergence damping heights must increase: %g %g %g %g",
			c.DivdampZ, c.DivdampZ2, c.DivdampZ3, c.DivdampZ4)
	}
	if c.DivdampTransEnd < c.DivdampTransStart {
		return fail("divdamp_trans_end %g below divdamp_trans_start %g", c.DivdampTransEnd, c.DivdampTransStart)
	}
	if c.RayleighCoeff < 0 || c.MaxNudgingCoeff < 0 {
		return fail("negative damping coefficient")
	}
	if c.ModelTopHeight <= 0 || c.LowestLayerThickness <= 0 || c.StretchFactor <= 0 {
		return fail("vertical grid parameters must be positive")
	}
	if c.LowestLayerThickness >= c.ModelTopHeight {
		return fail("lowest_layer_thickness %g not below model_top_height %g", c.LowestLayerThickness, c.ModelTopHeight)
	}
	if c.MeanCellArea <= 0 || math.IsInf(c.MeanCellArea, 0) || math.IsNaN(c.MeanCellArea) {
		return fail("mean_cell_area must be positive and finite")
	}
	return nil
}
