package reference

import (
	"math"
	"testing"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/grid"
	"github.com/notargets/nhsolve/kernel/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setup struct {
	mesh *grid.Mesh
	vert *grid.VerticalGrid
	init *dycore.InitArgs
	run  *dycore.RunArgs
}

func newSetup(t *testing.T, mesh *grid.Mesh, nlev int, step dycore.StepParams) setup {
	cfg := dycore.DefaultConfig()
	cfg.NumLevels = nlev
	v, err := grid.NewVerticalGrid(cfg)
	require.NoError(t, err)
	a, err := grid.BuildInitArgs(mesh, v, grid.DefaultAtmosphere(), cfg, nil)
	require.NoError(t, err)
	return setup{mesh: mesh, vert: v, init: a, run: grid.BuildRunArgs(mesh, v, grid.DefaultAtmosphere(), step)}
}

func torus(t *testing.T) *grid.Mesh {
	m, err := grid.NewTorus(4, 3, 10000)
	require.NoError(t, err)
	return m
}

func TestSingleCellStaysAtRest(t *testing.T) {
	s := newSetup(t, grid.SingleCell(10000), 1, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
	k := New()
	require.Equal(t, status.OK, k.Init(s.init))
	now := s.run.Now
	require.Equal(t, status.OK, k.Run(s.run))
	assert.InDeltaSlicef(t, now.Rho.Data, s.run.New.Rho.Data, 1e-12, "rho")
	assert.InDeltaSlicef(t, now.Exner.Data, s.run.New.Exner.Data, 1e-12, "exner")
	assert.InDeltaSlicef(t, now.ThetaV.Data, s.run.New.ThetaV.Data, 1e-9, "theta_v")
	assert.InDeltaSlicef(t, now.W.Data, s.run.New.W.Data, 1e-12, "w")
	assert.InDeltaSlicef(t, now.Vn.Data, s.run.New.Vn.Data, 1e-12, "vn")
}

func TestColumnReferenceStateIsSteady(t *testing.T) {
	s := newSetup(t, torus(t), 8, dycore.StepParams{Dtime: 5, NdynSubsteps: 2, DivdampFacO2: 0.032})
	k := New(WithWorkers(3))
	require.Equal(t, status.OK, k.Init(s.init))
	ref := s.run.Now.ThetaV.Clone()
	for i := 0; i < 4; i++ {
		s.run.Step.SubstepIndex = i % 2
		s.run.Step.AtInitialTimestep = i == 0
		require.Equal(t, status.OK, k.Run(s.run))
		s.run.Swap()
	}
	assert.Less(t, field.MaxDiff(ref, s.run.Now.ThetaV), 1e-9)
	assert.Less(t, field.MaxAbs(s.run.Now.W), 1e-12)
}

func TestForcingChangesSuccessiveStates(t *testing.T) {
	s := newSetup(t, torus(t), 5, dycore.StepParams{Dtime: 10, NdynSubsteps: 1})
	grid.Forcing{DdtVnPhy: 1e-3, GrfTendW: 1e-4, DdtExnerPhy: 1e-7}.Apply(s.run)
	k := New()
	require.Equal(t, status.OK, k.Init(s.init))

	require.Equal(t, status.OK, k.Run(s.run))
	first := s.run.New.Vn.Clone()
	firstW := s.run.New.W.Clone()
	s.run.Swap()
	require.Equal(t, status.OK, k.Run(s.run))

	assert.Greater(t, field.MaxDiff(first, s.run.New.Vn), 1e-3)
	assert.Greater(t, field.MaxDiff(firstW, s.run.New.W), 0.0)
	assert.InDelta(t, 0.01, s.run.New.Vn.At(0, 0)-s.run.Now.Vn.At(0, 0), 1e-12)
}

func TestIdenticalHistoriesAreBitIdentical(t *testing.T) {
	run := func(workers int) []*field.F64 {
		s := newSetup(t, torus(t), 6, dycore.StepParams{Dtime: 2, NdynSubsteps: 3, DivdampFacO2: 0.004, PrepAdvection: true})
		grid.Forcing{DdtVnPhy: 2e-4, GrfTendW: -3e-3, GrfTendThv: 1e-5, GrfTendRho: 1e-7}.Apply(s.run)
		k := New(WithWorkers(workers))
		require.Equal(t, status.OK, k.Init(s.init))
		for i := 0; i < 6; i++ {
			s.run.Step.SubstepIndex = i % 3
			s.run.Step.AtInitialTimestep = i == 0
			require.Equal(t, status.OK, k.Run(s.run))
			s.run.Swap()
		}
		n := s.run.Now
		return []*field.F64{n.Rho, n.Exner, n.W, n.ThetaV, n.Vn, s.run.MassFlxIC, s.run.VnTraj, s.run.ExnerDynIncr}
	}
	a, b := run(1), run(4)
	for i := range a {
		assert.Equal(t, a[i].Data, b[i].Data, "field %d", i)
	}
}

func TestLateralBoundaryUsesBoundaryTendency(t *testing.T) {
	s := newSetup(t, torus(t), 3, dycore.StepParams{Dtime: 4, NdynSubsteps: 1})
	s.init.NudgecoeffE.Data[2] = 0.02
	s.run.GrfTendVn.Fill(0.5)
	s.run.DdtVnPhy.Fill(0.25)
	k := New()
	require.Equal(t, status.OK, k.Init(s.init))
	require.Equal(t, status.OK, k.Run(s.run))
	assert.InDelta(t, s.run.Now.Vn.At(2, 1)+2, s.run.New.Vn.At(2, 1), 1e-12)
	assert.InDelta(t, s.run.Now.Vn.At(3, 1)+1, s.run.New.Vn.At(3, 1), 1e-12)
}

func TestRayleighDampingReducesW(t *testing.T) {
	s := newSetup(t, torus(t), 10, dycore.StepParams{Dtime: 10, NdynSubsteps: 1})
	s.run.GrfTendW.Fill(1)
	k := New()
	require.Equal(t, status.OK, k.Init(s.init))
	require.Equal(t, status.OK, k.Run(s.run))
	top, low := s.run.New.W.At(0, 1), s.run.New.W.At(0, 9)
	assert.Less(t, top, low)
	assert.Equal(t, 0.0, s.run.New.W.At(0, 0))
	assert.Equal(t, 0.0, s.run.New.W.At(0, 10))
}

func TestExnerDynamicsIncrement(t *testing.T) {
	s := newSetup(t, torus(t), 4, dycore.StepParams{Dtime: 3, NdynSubsteps: 2})
	s.run.DdtExnerPhy.Fill(1e-6)
	k := New()
	require.Equal(t, status.OK, k.Init(s.init))
	start := s.run.Now.Exner.Clone()
	for i := 0; i < 2; i++ {
		s.run.Step.SubstepIndex = i
		require.Equal(t, status.OK, k.Run(s.run))
		s.run.Swap()
	}
	// the physics share of the exner change is removed from the increment
	for c := 0; c < s.mesh.NCells; c++ {
		for lev := 0; lev < 4; lev++ {
			want := s.run.Now.Exner.At(c, lev) - start.At(c, lev) - 2*3*1e-6
			assert.InDelta(t, want, s.run.ExnerDynIncr.At(c, lev), 1e-14)
		}
	}
}

func TestPrepAdvectionAveragesSubsteps(t *testing.T) {
	atm := grid.DefaultAtmosphere()
	atm.U0 = 8
	cfg := dycore.DefaultConfig()
	cfg.NumLevels = 3
	m := torus(t)
	v, err := grid.NewVerticalGrid(cfg)
	require.NoError(t, err)
	a, err := grid.BuildInitArgs(m, v, atm, cfg, nil)
	require.NoError(t, err)
	r := grid.BuildRunArgs(m, v, atm, dycore.StepParams{Dtime: 1, NdynSubsteps: 4, PrepAdvection: true})
	k := New()
	require.Equal(t, status.OK, k.Init(a))
	for i := 0; i < 4; i++ {
		r.Step.SubstepIndex = i
		require.Equal(t, status.OK, k.Run(r))
		r.Swap()
	}
	for e := 0; e < m.NEdges; e++ {
		assert.InDelta(t, 8*m.NormalX[e], r.VnTraj.At(e, 0), 1e-12)
		assert.InDelta(t, r.MassFlE.At(e, 2), r.MassFlxME.At(e, 2), 1e-9)
	}
}

func TestStatusCodes(t *testing.T) {
	t.Run("run before init", func(t *testing.T) {
		s := newSetup(t, grid.SingleCell(1000), 1, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		k := New()
		assert.Equal(t, status.NotInitialized, k.Run(s.run))
		assert.Equal(t, status.NotInitialized, k.Init(s.init), "failure is sticky")
	})
	t.Run("invalid config", func(t *testing.T) {
		s := newSetup(t, grid.SingleCell(1000), 1, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		s.init.Config.VertNested = true
		assert.Equal(t, status.InvalidConfig, New().Init(s.init))
	})
	t.Run("negative area", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		s.init.CellAreas.Data[5] = -1
		assert.Equal(t, status.InconsistentGeometry, New().Init(s.init))
	})
	t.Run("bad mask", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		s.init.MaskProgHaloC.Data[0] = 2
		assert.Equal(t, status.InconsistentGeometry, New().Init(s.init))
	})
	t.Run("vertical offset leaves column", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		s.init.VertoffsetGradp.Set(2, 0, 1, 1)
		assert.Equal(t, status.InconsistentGeometry, New().Init(s.init))
	})
	t.Run("substep out of range", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 2, SubstepIndex: 2})
		k := New()
		require.Equal(t, status.OK, k.Init(s.init))
		assert.Equal(t, status.InvalidStep, k.Run(s.run))
	})
	t.Run("non-finite divergence damping", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1, DivdampFacO2: v})
			k := New()
			require.Equal(t, status.OK, k.Init(s.init))
			assert.Equal(t, status.InvalidStep, k.Run(s.run), "divdamp_fac_o2 = %g", v)
		}
		assert.False(t, ValidStep(dycore.StepParams{Dtime: 1, NdynSubsteps: 1, DivdampFacO2: math.Inf(1)}))
		assert.True(t, ValidStep(dycore.StepParams{Dtime: 1, NdynSubsteps: 1, DivdampFacO2: 0.004}))
	})
	t.Run("shape differs from init", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		k := New()
		require.Equal(t, status.OK, k.Init(s.init))
		s.run.Vt = field.NewF64(1, 2)
		assert.Equal(t, status.InvalidStep, k.Run(s.run))
	})
	t.Run("blow up", func(t *testing.T) {
		s := newSetup(t, torus(t), 2, dycore.StepParams{Dtime: 1, NdynSubsteps: 1})
		k := New()
		require.Equal(t, status.OK, k.Init(s.init))
		s.run.DdtVnPhy.Data[0] = math.Inf(1)
		assert.Equal(t, status.Unstable, k.Run(s.run))
		assert.Equal(t, status.Unstable, k.Run(s.run))
	})
	assert.Equal(t, "non-finite values in the new state", New().StatusText(status.Unstable))
}
