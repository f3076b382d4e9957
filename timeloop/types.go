package timeloop

import (
	"fmt"
	"time"

	"github.com/notargets/nhsolve/dycore"
)

// Stepper advances the prognostic state by one dynamics substep.
// *solver.Solver satisfies it.
type Stepper interface {
	Run(args *dycore.RunArgs) error
}

// Config describes the outer loop
type Config struct {
	Dtime         float64 // outer (physics) step in seconds
	NSteps        int
	NdynSubsteps  int
	DivdampFacO2  float64
	PrepAdvection bool
}

// Validate rejects loops that cannot be run
func (c Config) Validate() error {
	if !(c.Dtime > 0) {
		return fmt.Errorf("dtime must be positive, got %g", c.Dtime)
	}
	if c.NSteps < 0 {
		return fmt.Errorf("n_steps must not be negative, got %d", c.NSteps)
	}
	if c.NdynSubsteps < 1 {
		return fmt.Errorf("ndyn_substeps must be at least 1, got %d", c.NdynSubsteps)
	}
	return nil
}

// SubstepDtime is the time step handed to each dynamics substep
func (c Config) SubstepDtime() float64 {
	return c.Dtime / float64(c.NdynSubsteps)
}

// Observer is notified after every substep, once new has been promoted to
// now. It must not keep args.
type Observer interface {
	OnSubstep(step, substep int, args *dycore.RunArgs)
}

// StepObserver is notified after the last substep of every outer step
type StepObserver interface {
	OnStep(step int, args *dycore.RunArgs)
}

// Result summarises one call of TimeLoop.Run
type Result struct {
	Steps         int
	Substeps      int
	SimulatedTime float64
	Elapsed       time.Duration
}
