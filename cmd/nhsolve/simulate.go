package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/notargets/nhsolve/config"
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/grid"
	"github.com/notargets/nhsolve/kernel/native"
	"github.com/notargets/nhsolve/kernel/occa"
	"github.com/notargets/nhsolve/kernel/reference"
	"github.com/notargets/nhsolve/logging"
	"github.com/notargets/nhsolve/partitions"
	"github.com/notargets/nhsolve/solver"
	"github.com/notargets/nhsolve/timeloop"
	"github.com/notargets/nhsolve/utils"
	"go.uber.org/zap"
)

var errNativeUnavailable = errors.New("native backend not built in (rebuild with -tags nhnative)")

// Report summarises one simulation
type Report struct {
	Backend string
	Ranks   int
	Shape   dycore.Shape
	Owned   int
	Halo    int
	Result  *timeloop.Result
	Samples []timeloop.Sample
}

// newKernel creates the backend named in cfg. The returned release function
// frees resources the kernel does not own itself.
func newKernel(cfg config.RunConfig) (dycore.Kernel, func(), error) {
	switch cfg.Backend {
	case config.BackendReference:
		return reference.New(reference.WithWorkers(cfg.Workers)), func() {}, nil
	case config.BackendOCCA:
		var modes []string
		if cfg.Device != "" {
			modes = []string{cfg.Device}
		}
		device, err := utils.TryCreateDevice(modes...)
		if err != nil {
			return nil, nil, err
		}
		return occa.New(device), func() { device.Free() }, nil
	case config.BackendNative:
		if !native.Available() {
			return nil, nil, errNativeUnavailable
		}
		return native.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// buildLayout decomposes the mesh, or returns nil when it is not split
func buildLayout(cfg config.GridConfig, mesh *grid.Mesh) (*partitions.PartitionLayout, error) {
	if cfg.Partitions <= 1 {
		return nil, nil
	}
	strategy, err := partitions.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	pb := &partitions.PartitionBuilder{
		Mesh:          mesh,
		NumPartitions: cfg.Partitions,
		Strategy:      strategy,
	}
	return pb.BuildPartitions()
}

// rank is one initialized solver with its own copy of the state
type rank struct {
	solver  *solver.Solver
	args    *dycore.RunArgs
	release func()
}

func (r *rank) close() {
	if r.solver != nil {
		r.solver.Close()
	}
	if r.release != nil {
		r.release()
	}
}

// ranks advances every partition by one substep, refreshes the halos of the
// new time level and gathers the owned values of every rank into the first,
// which the observers read. The timeloop swaps the first rank; the others
// are swapped here.
type ranks struct {
	members  []*rank
	exchange *partitions.HaloExchange
}

func (rs *ranks) Run(args *dycore.RunArgs) error {
	for i, r := range rs.members {
		if i > 0 {
			r.args.Step = args.Step
		}
		if err := r.solver.Run(r.args); err != nil {
			return fmt.Errorf("rank %d: %w", i, err)
		}
	}
	if rs.exchange != nil {
		states := make([]dycore.PrognosticState, len(rs.members))
		for i, r := range rs.members {
			states[i] = r.args.New
		}
		if err := rs.exchange.ExchangeState(states); err != nil {
			return err
		}
		if err := rs.exchange.Gather(states, 0); err != nil {
			return err
		}
	}
	for _, r := range rs.members[1:] {
		r.args.Swap()
	}
	return nil
}

type setup struct {
	cfg   *config.Config
	mesh  *grid.Mesh
	vgrid *grid.VerticalGrid
	atm   grid.ReferenceAtmosphere
}

func (s setup) newRank(masks *grid.Masks) (*rank, error) {
	initArgs, err := grid.BuildInitArgs(s.mesh, s.vgrid, s.atm, s.cfg.Nonhydro, masks)
	if err != nil {
		return nil, fmt.Errorf("init arguments: %w", err)
	}
	kernel, release, err := newKernel(s.cfg.Run)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", s.cfg.Run.Backend, err)
	}
	r := &rank{solver: solver.New(kernel), release: release}
	if err := r.solver.Init(initArgs); err != nil {
		r.close()
		return nil, err
	}
	r.args = grid.BuildRunArgs(s.mesh, s.vgrid, s.atm, dycore.StepParams{})
	s.cfg.Forcing().Apply(r.args)
	return r, nil
}

// Simulate builds the mesh and the initial state described by cfg, then
// integrates it with the configured backend
func Simulate(ctx context.Context, cfg *config.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.Logger().Named("nhsolve")

	mesh, err := grid.NewTorus(cfg.Grid.Nx, cfg.Grid.Ny, cfg.Grid.EdgeLength)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	vgrid, err := grid.NewVerticalGrid(cfg.Nonhydro)
	if err != nil {
		return nil, fmt.Errorf("vertical grid: %w", err)
	}
	layout, err := buildLayout(cfg.Grid, mesh)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}
	st := setup{cfg: cfg, mesh: mesh, vgrid: vgrid, atm: cfg.ReferenceAtmosphere()}
	report := &Report{Backend: cfg.Run.Backend, Ranks: 1, Owned: mesh.NCells}

	var ids []int
	switch {
	case layout == nil:
		ids = []int{-1}
	case cfg.Grid.AllRanks:
		for p := 0; p < layout.NumPartitions; p++ {
			ids = append(ids, p)
		}
		report.Ranks = layout.NumPartitions
	default:
		ids = []int{cfg.Grid.Rank}
		report.Owned = layout.Partitions[cfg.Grid.Rank].NumElements
		report.Halo = len(partitions.HaloCells(layout, mesh, cfg.Grid.Rank))
	}

	stepper := &ranks{}
	defer func() {
		for _, r := range stepper.members {
			r.close()
		}
	}()
	for _, id := range ids {
		var masks *grid.Masks
		if id >= 0 {
			if masks, err = partitions.HaloMasks(layout, mesh, id); err != nil {
				return nil, err
			}
		}
		r, err := st.newRank(masks)
		if err != nil {
			return nil, err
		}
		stepper.members = append(stepper.members, r)
	}
	if len(ids) > 1 {
		if stepper.exchange, err = partitions.NewHaloExchange(layout, mesh); err != nil {
			return nil, err
		}
		report.Halo, _ = stepper.exchange.Volume()
	}
	report.Shape = stepper.members[0].solver.Shape()

	loop, err := timeloop.New(stepper, cfg.Loop())
	if err != nil {
		return nil, err
	}
	diag := &timeloop.Diagnostics{}
	loop.AddObserver(diag)

	log.Info("starting run",
		zap.String("backend", cfg.Run.Backend),
		zap.Int("ranks", len(ids)),
		zap.Int("cells", mesh.NCells),
		zap.Int("levels", vgrid.NLevels),
		zap.Int("steps", cfg.Run.NSteps))

	report.Result, err = loop.Run(ctx, stepper.members[0].args)
	report.Samples = diag.Samples
	return report, err
}
