package occa

import (
	"testing"

	"github.com/notargets/gocca"
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/grid"
	"github.com/notargets/nhsolve/kernel/reference"
	"github.com/notargets/nhsolve/kernel/status"
	"github.com/notargets/nhsolve/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T) *gocca.OCCADevice {
	t.Helper()
	device, err := utils.TryCreateDevice()
	if err != nil {
		t.Skipf("no OCCA device: %v", err)
	}
	t.Cleanup(device.Free)
	return device
}

func build(t *testing.T, nlev int, step dycore.StepParams) (*dycore.InitArgs, *dycore.RunArgs) {
	mesh, err := grid.NewTorus(4, 3, 10000)
	require.NoError(t, err)
	cfg := dycore.DefaultConfig()
	cfg.NumLevels = nlev
	v, err := grid.NewVerticalGrid(cfg)
	require.NoError(t, err)
	a, err := grid.BuildInitArgs(mesh, v, grid.DefaultAtmosphere(), cfg, nil)
	require.NoError(t, err)
	r := grid.BuildRunArgs(mesh, v, grid.DefaultAtmosphere(), step)
	grid.Forcing{DdtVnPhy: 2e-4, GrfTendW: -3e-3, GrfTendThv: 1e-5, GrfTendRho: 1e-7, DdtExnerPhy: 1e-8}.Apply(r)
	return a, r
}

func TestMatchesReference(t *testing.T) {
	device := testDevice(t)
	step := dycore.StepParams{Dtime: 2, NdynSubsteps: 3, DivdampFacO2: 0.004, PrepAdvection: true}

	ia, ra := build(t, 6, step)
	ib, rb := build(t, 6, step)
	ib.NudgecoeffE.Data[1] = 0.01
	ia.NudgecoeffE.Data[1] = 0.01

	ref := reference.New(reference.WithWorkers(1))
	dev := New(device)
	defer dev.Free()
	require.Equal(t, status.OK, ref.Init(ia))
	require.Equal(t, status.OK, dev.Init(ib))

	for i := 0; i < 6; i++ {
		for _, r := range []*dycore.RunArgs{ra, rb} {
			r.Step.SubstepIndex = i % 3
			r.Step.AtInitialTimestep = i == 0
		}
		require.Equal(t, status.OK, ref.Run(ra))
		require.Equal(t, status.OK, dev.Run(rb), dev.StatusText(status.BackendFailure))
		ra.Swap()
		rb.Swap()
	}

	pairs := map[string][2]*field.F64{
		"rho":            {ra.Now.Rho, rb.Now.Rho},
		"exner":          {ra.Now.Exner, rb.Now.Exner},
		"w":              {ra.Now.W, rb.Now.W},
		"theta_v":        {ra.Now.ThetaV, rb.Now.ThetaV},
		"vn":             {ra.Now.Vn, rb.Now.Vn},
		"vn_ie":          {ra.VnIE, rb.VnIE},
		"mass_flx_ic":    {ra.MassFlxIC, rb.MassFlxIC},
		"vn_traj":        {ra.VnTraj, rb.VnTraj},
		"exner_dyn_incr": {ra.ExnerDynIncr, rb.ExnerDynIncr},
	}
	for name, p := range pairs {
		scale := field.MaxAbs(p[0])
		if scale < 1 {
			scale = 1
		}
		assert.Less(t, field.MaxDiff(p[0], p[1]), 1e-10*scale, name)
	}
}

func TestRunBeforeInit(t *testing.T) {
	device := testDevice(t)
	_, r := build(t, 3, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
	k := New(device)
	defer k.Free()
	assert.Equal(t, status.NotInitialized, k.Run(r))
	// Failures are sticky
	assert.Equal(t, status.NotInitialized, k.Run(r))
}

func TestInitRejectsBadConfig(t *testing.T) {
	device := testDevice(t)
	a, _ := build(t, 3, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
	a.Config.NdynSubsteps = 0
	k := New(device)
	defer k.Free()
	assert.Equal(t, status.InvalidConfig, k.Init(a))
}

func TestInvalidStep(t *testing.T) {
	device := testDevice(t)
	a, r := build(t, 3, dycore.StepParams{Dtime: 1, NdynSubsteps: 2, SubstepIndex: 2})
	k := New(device)
	defer k.Free()
	require.Equal(t, status.OK, k.Init(a))
	assert.Equal(t, status.InvalidStep, k.Run(r))
}
