// Package timeloop drives a dycore solver through outer time steps and
// dynamics substeps on double-buffered prognostic state.
package timeloop

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/logging"
	"go.uber.org/zap"
)

// TimeLoop runs substeps in order and promotes new to now after each
type TimeLoop struct {
	stepper   Stepper
	cfg       Config
	observers []Observer
	steppers  []StepObserver
	started   bool
	log       *zap.Logger
}

// New returns a loop over stepper
func New(stepper Stepper, cfg Config) (*TimeLoop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("timeloop: %w", err)
	}
	return &TimeLoop{stepper: stepper, cfg: cfg, log: logging.Logger().Named("timeloop")}, nil
}

// AddObserver registers o. Observers that also implement StepObserver are
// notified at the end of every outer step too.
func (tl *TimeLoop) AddObserver(o Observer) {
	tl.observers = append(tl.observers, o)
	if so, ok := o.(StepObserver); ok {
		tl.steppers = append(tl.steppers, so)
	}
}

// Config returns the loop configuration
func (tl *TimeLoop) Config() Config { return tl.cfg }

// Run integrates cfg.NSteps outer steps starting from args.Now. On return
// args.Now holds the latest state. The context is only checked between
// substeps; a substep in progress always completes. Only the first substep
// of the first Run is flagged as the initial time step.
func (tl *TimeLoop) Run(ctx context.Context, args *dycore.RunArgs) (*Result, error) {
	start := time.Now()
	res := &Result{}
	ndyn := tl.cfg.NdynSubsteps
	dt := tl.cfg.SubstepDtime()

	for step := 0; step < tl.cfg.NSteps; step++ {
		for sub := 0; sub < ndyn; sub++ {
			if err := ctx.Err(); err != nil {
				res.Elapsed = time.Since(start)
				return res, err
			}
			args.Step = dycore.StepParams{
				Dtime:             dt,
				PrepAdvection:     tl.cfg.PrepAdvection,
				AtInitialTimestep: !tl.started,
				DivdampFacO2:      tl.cfg.DivdampFacO2,
				NdynSubsteps:      ndyn,
				SubstepIndex:      sub,
			}
			if err := tl.stepper.Run(args); err != nil {
				res.Elapsed = time.Since(start)
				return res, fmt.Errorf("step %d substep %d: %w", step, sub, err)
			}
			tl.started = true
			args.Swap()
			res.Substeps++
			res.SimulatedTime += dt
			for _, o := range tl.observers {
				o.OnSubstep(step, sub, args)
			}
		}
		res.Steps++
		for _, o := range tl.steppers {
			o.OnStep(step, args)
		}
		tl.log.Debug("step done", zap.Int("step", step), zap.Float64("time", res.SimulatedTime))
	}
	res.Elapsed = time.Since(start)
	tl.log.Info("time loop finished",
		zap.Int("steps", res.Steps),
		zap.Int("substeps", res.Substeps),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
