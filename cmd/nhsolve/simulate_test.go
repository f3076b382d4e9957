package main

import (
	"context"
	"strings"
	"testing"

	"github.com/notargets/nhsolve/config"
	"github.com/notargets/nhsolve/timeloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallCase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grid.Nx, cfg.Grid.Ny = 3, 3
	cfg.Grid.EdgeLength = 20000
	cfg.Nonhydro.NumLevels = 6
	cfg.Nonhydro.NdynSubsteps = 2
	cfg.Run.Dtime = 20
	cfg.Run.NSteps = 3
	cfg.Run.DivdampFacO2 = 0
	cfg.Atmosphere.DdtVnPhy = 1e-3
	return cfg
}

func TestSimulateReference(t *testing.T) {
	report, err := Simulate(context.Background(), smallCase())
	require.NoError(t, err)

	assert.Equal(t, config.BackendReference, report.Backend)
	assert.Equal(t, 18, report.Shape.NCells)
	assert.Equal(t, 6, report.Shape.NLevels)
	assert.Equal(t, 18, report.Owned)
	assert.Zero(t, report.Halo)
	assert.Equal(t, 3, report.Result.Steps)
	assert.Equal(t, 6, report.Result.Substeps)
	assert.InDelta(t, 60, report.Result.SimulatedTime, 1e-9)

	d := timeloop.Diagnostics{Samples: report.Samples}
	assert.InDeltaSlice(t, []float64{0.02, 0.04, 0.06},
		d.Series(func(s timeloop.Sample) float64 { return s.MaxVn }), 1e-9)
}

func TestSimulatePartitioned(t *testing.T) {
	cfg := smallCase()
	cfg.Grid.Partitions = 2
	cfg.Grid.Rank = 1
	report, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Owned)
	assert.Positive(t, report.Halo)
	assert.Equal(t, 18, report.Shape.NCells)
}

func TestSimulateAllRanks(t *testing.T) {
	cfg := smallCase()
	cfg.Grid.Partitions = 3
	cfg.Grid.Strategy = "graph"
	cfg.Grid.AllRanks = true
	report, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Ranks)
	assert.Positive(t, report.Halo)
	assert.Equal(t, 6, report.Result.Substeps)

	// Uniform forcing is unaffected by the decomposition
	d := timeloop.Diagnostics{Samples: report.Samples}
	assert.InDeltaSlice(t, []float64{0.02, 0.04, 0.06},
		d.Series(func(s timeloop.Sample) float64 { return s.MaxVn }), 1e-9)
}

func TestSimulateAllRanksMatchesSingleRank(t *testing.T) {
	forced := func() *config.Config {
		cfg := smallCase()
		cfg.Atmosphere.GrfTendRho = 1e-6
		cfg.Atmosphere.GrfTendW = 1e-3
		return cfg
	}
	single, err := Simulate(context.Background(), forced())
	require.NoError(t, err)

	cfg := forced()
	cfg.Grid.Partitions = 3
	cfg.Grid.Strategy = "graph"
	cfg.Grid.AllRanks = true
	all, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)

	want := timeloop.Diagnostics{Samples: single.Samples}
	got := timeloop.Diagnostics{Samples: all.Samples}
	meanRho := func(s timeloop.Sample) float64 { return s.MeanRho }
	maxW := func(s timeloop.Sample) float64 { return s.MaxW }
	require.Len(t, got.Samples, 3)
	assert.NotEqual(t, want.Samples[0].MeanRho, want.Samples[2].MeanRho)
	assert.Positive(t, want.Samples[0].MaxW)
	assert.InDeltaSlice(t, want.Series(meanRho), got.Series(meanRho), 1e-12)
	assert.InDeltaSlice(t, want.Series(maxW), got.Series(maxW), 1e-12)
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	cfg := smallCase()
	cfg.Run.Backend = "fortran"
	_, err := Simulate(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := Simulate(ctx, smallCase())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Result.Substeps)
}

func TestRenderReport(t *testing.T) {
	report, err := Simulate(context.Background(), smallCase())
	require.NoError(t, err)

	out := renderReport(report)
	assert.Contains(t, out, "reference")
	assert.Contains(t, out, "max |vn|")

	chart := renderSeries(report.Samples, "max |vn|", func(s timeloop.Sample) float64 { return s.MaxVn })
	assert.True(t, strings.Contains(chart, "max |vn|"))
	assert.Empty(t, renderSeries(report.Samples[:1], "x", func(s timeloop.Sample) float64 { return s.MaxVn }))
}

func TestNativeBackendWithoutLibrary(t *testing.T) {
	_, _, err := newKernel(config.RunConfig{Backend: config.BackendNative})
	if err == nil {
		t.Skip("native backend is linked in")
	}
	assert.ErrorIs(t, err, errNativeUnavailable)
}
