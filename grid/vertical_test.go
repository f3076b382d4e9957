package grid

import (
	"testing"

	"github.com/notargets/nhsolve/dycore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerticalGridStretching(t *testing.T) {
	cfg := dycore.DefaultConfig()
	cfg.NumLevels = 20
	v, err := NewVerticalGrid(cfg)
	require.NoError(t, err)

	require.Len(t, v.VctA, 21)
	assert.InDelta(t, cfg.ModelTopHeight, v.VctA[0], 1e-9)
	assert.Equal(t, 0.0, v.VctA[20])
	assert.InDelta(t, cfg.LowestLayerThickness, v.DzFull[19], 1e-6)
	for k := 1; k < len(v.VctA); k++ {
		assert.Less(t, v.VctA[k], v.VctA[k-1])
	}
	for k := 1; k < v.NLevels; k++ {
		assert.GreaterOrEqual(t, v.DzFull[k-1], v.DzFull[k])
		assert.Greater(t, v.DzHalf[k], 0.0)
		assert.True(t, v.WgtfacC[k] > 0 && v.WgtfacC[k] < 1)
	}
	assert.Equal(t, 0.0, v.RayleighW[20])
	assert.InDelta(t, cfg.RayleighCoeff, v.RayleighW[0], 1e-12)
}

func TestVerticalGridSingleLevel(t *testing.T) {
	cfg := dycore.DefaultConfig()
	cfg.NumLevels = 1
	v, err := NewVerticalGrid(cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{cfg.ModelTopHeight, 0}, v.VctA)
	assert.Equal(t, [3]float64{1, 0, 0}, v.WgtfacqC)
}

func TestExtrapolationWeightsAreExactForQuadratics(t *testing.T) {
	z := []float64{900, 500, 300, 100}
	w := extrapolationWeights(z, 0)
	f := func(x float64) float64 { return 2 + 3*x - 0.01*x*x }
	got := w[0]*f(z[3]) + w[1]*f(z[2]) + w[2]*f(z[1])
	assert.InDelta(t, f(0), got, 1e-9)
	assert.InDelta(t, 1, w[0]+w[1]+w[2], 1e-12)
}

func TestReferenceAtmosphereIsHydrostatic(t *testing.T) {
	atm := DefaultAtmosphere()
	for _, z := range []float64{0, 1000, 10000} {
		dz := 1.0
		fd := (atm.Exner(z+dz) - atm.Exner(z-dz)) / (2 * dz)
		assert.InDelta(t, atm.DExnerDz(z), fd, 1e-10)
		assert.InDelta(t, dycore.RD*atm.T0, atm.Pressure(z)/atm.Rho(z), 1e-9)
	}
	assert.InDelta(t, 1.0, atm.Exner(0), 1e-15)
}
