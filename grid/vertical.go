package grid

import (
	"fmt"
	"math"

	"github.com/notargets/nhsolve/dycore"
)

// VerticalGrid is a terrain following coordinate over flat ground. Index 0
// is the model top.
type VerticalGrid struct {
	NLevels   int
	VctA      []float64 // half level heights, NLevels+1
	VctB      []float64
	ZFull     []float64 // full level heights
	DzFull    []float64 // layer thickness
	DzHalf    []float64 // distance between adjacent full levels
	WgtfacC   []float64 // half level interpolation weight of the level below
	WgtfacqC  [3]float64
	RayleighW []float64
	Offctr    float64 // implicit off-centering of the vertical wind
}

// NewVerticalGrid distributes the levels between the surface and the model
// top. The lowest layer has the configured thickness and the layers thicken
// upward, more strongly for larger stretch factors.
func NewVerticalGrid(cfg dycore.Config) (*VerticalGrid, error) {
	nlev := cfg.NumLevels
	top := cfg.ModelTopHeight
	if nlev < 1 {
		return nil, fmt.Errorf("num_levels must be at least 1, got %d", nlev)
	}
	if !(top > 0) {
		return nil, fmt.Errorf("model_top_height must be positive, got %g", top)
	}
	v := &VerticalGrid{NLevels: nlev, Offctr: 0.15}
	v.VctA = make([]float64, nlev+1)
	v.VctB = make([]float64, nlev+1)
	v.VctA[0] = top
	if nlev > 1 {
		if !(cfg.LowestLayerThickness > 0 && cfg.LowestLayerThickness < top) {
			return nil, fmt.Errorf("lowest_layer_thickness %g outside (0, %g)", cfg.LowestLayerThickness, top)
		}
		s := cfg.StretchFactor
		eta := func(h int) float64 {
			return 2 / math.Pi * math.Acos(math.Pow(float64(h), s)/math.Pow(float64(nlev), s))
		}
		exp := math.Log(cfg.LowestLayerThickness/top) / math.Log(eta(nlev-1))
		for h := 1; h < nlev; h++ {
			v.VctA[h] = top * math.Pow(eta(h), exp)
		}
	}
	for h := range v.VctB {
		v.VctB[h] = 1 - v.VctA[h]/top
	}

	v.ZFull = make([]float64, nlev)
	v.DzFull = make([]float64, nlev)
	for k := 0; k < nlev; k++ {
		v.ZFull[k] = 0.5 * (v.VctA[k] + v.VctA[k+1])
		v.DzFull[k] = v.VctA[k] - v.VctA[k+1]
	}
	v.DzHalf = make([]float64, nlev+1)
	v.WgtfacC = make([]float64, nlev+1)
	v.DzHalf[0] = 2 * (v.VctA[0] - v.ZFull[0])
	v.DzHalf[nlev] = 2 * (v.ZFull[nlev-1] - v.VctA[nlev])
	v.WgtfacC[0] = 1
	for h := 1; h < nlev; h++ {
		v.DzHalf[h] = v.ZFull[h-1] - v.ZFull[h]
		v.WgtfacC[h] = (v.VctA[h] - v.ZFull[h-1]) / (v.ZFull[h] - v.ZFull[h-1])
	}
	v.WgtfacqC = extrapolationWeights(v.ZFull, v.VctA[nlev])

	v.RayleighW = make([]float64, nlev+1)
	zd := cfg.RayleighDampingHeight
	for h := range v.RayleighW {
		if z := v.VctA[h]; z > zd && top > zd {
			s := math.Sin(math.Pi / 2 * (z - zd) / (top - zd))
			v.RayleighW[h] = cfg.RayleighCoeff * s * s
		}
	}
	return v, nil
}

// extrapolationWeights returns the Lagrange weights of the lowest full levels
// evaluated at the surface height zs.
func extrapolationWeights(zFull []float64, zs float64) [3]float64 {
	nlev := len(zFull)
	n := min(3, nlev)
	var w [3]float64
	for j := 0; j < n; j++ {
		w[j] = 1
		zj := zFull[nlev-1-j]
		for i := 0; i < n; i++ {
			if i != j {
				zi := zFull[nlev-1-i]
				w[j] *= (zs - zi) / (zj - zi)
			}
		}
	}
	return w
}

// ImplicitWeight is the weight of the new vertical wind in the mass flux
func (v *VerticalGrid) ImplicitWeight() float64 { return 0.5 + v.Offctr }
