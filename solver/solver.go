// Package solver guards a dycore.Kernel with an explicit lifecycle. Init is
// accepted once, Run only after a successful Init, and any nonzero status
// from the kernel makes the instance unusable.
package solver

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/logging"
	"go.uber.org/zap"
)

// State of a solver instance
type State int

const (
	Uninitialized State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Solver owns one kernel instance. Calls are serialised.
type Solver struct {
	mu         sync.Mutex
	kernel     dycore.Kernel
	state      State
	shape      dycore.Shape
	validate   bool
	log        *zap.Logger
	runs       int
	lastStatus int
}

// Option configures a Solver
type Option func(*Solver)

// WithValidation enables or disables argument checks before each call
func WithValidation(on bool) Option {
	return func(s *Solver) { s.validate = on }
}

// WithLogger overrides the package logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) { s.log = l }
}

// New wraps kernel in an uninitialized solver
func New(kernel dycore.Kernel, opts ...Option) *Solver {
	s := &Solver{kernel: kernel, validate: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Logger()
	}
	return s
}

// Init hands the geometry and configuration to the kernel
func (s *Solver) Init(args *dycore.InitArgs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Ready:
		return ErrAlreadyInitialized
	case Failed:
		return ErrFailed
	}
	if args == nil {
		return &ValidationError{Field: "init arguments", Reason: "nil"}
	}
	shape, err := s.checkInit(args)
	if err != nil {
		return err
	}

	start := time.Now()
	code := s.kernel.Init(args)
	s.lastStatus = code
	if code != 0 {
		s.state = Failed
		err := s.statusError("init", code)
		s.log.Warn("kernel init failed", zap.Int("status", code), zap.Error(err))
		return err
	}
	s.state = Ready
	s.shape = shape
	s.log.Debug("solver initialized",
		zap.Stringer("shape", shape),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Run advances one dynamics substep, overwriting args.New in place
func (s *Solver) Run(args *dycore.RunArgs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Uninitialized:
		return ErrNotInitialized
	case Failed:
		return ErrFailed
	}
	if args == nil {
		return &ValidationError{Field: "run arguments", Reason: "nil"}
	}
	if s.validate {
		if err := s.checkRun(args); err != nil {
			return err
		}
	}

	code := s.kernel.Run(args)
	s.lastStatus = code
	s.runs++
	if code != 0 {
		s.state = Failed
		err := s.statusError("run", code)
		s.log.Warn("kernel run failed",
			zap.Int("status", code),
			zap.Int("call", s.runs),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Solver) checkInit(args *dycore.InitArgs) (dycore.Shape, error) {
	shape, ok := args.InferShape()
	if !s.validate {
		return shape, nil
	}
	if err := args.Config.Validate(); err != nil {
		return shape, &ValidationError{Field: "config", Reason: err.Error()}
	}
	if !ok {
		return shape, &ValidationError{Field: "geometry",
			Reason: "cell_areas, edge_areas, c_intp and vct_a are needed to infer the mesh size"}
	}
	if err := shape.Validate(); err != nil {
		return shape, &ValidationError{Field: "geometry", Reason: err.Error()}
	}
	if shape.NLevels != args.Config.NumLevels {
		return shape, &ValidationError{Field: "vct_a",
			Reason: fmt.Sprintf("%d levels, num_levels is %d", shape.NLevels, args.Config.NumLevels)}
	}
	for _, b := range args.Bindings() {
		if err := b.Check(shape); err != nil {
			return shape, &ValidationError{Field: b.Name, Reason: err.Error()}
		}
	}
	return shape, nil
}

func (s *Solver) checkRun(args *dycore.RunArgs) error {
	for _, b := range args.Bindings() {
		if err := b.Check(s.shape); err != nil {
			return &ValidationError{Field: b.Name, Reason: err.Error()}
		}
	}
	if args.Now.Rho == args.New.Rho || args.Now.Exner == args.New.Exner || args.Now.W == args.New.W ||
		args.Now.ThetaV == args.New.ThetaV || args.Now.Vn == args.New.Vn {
		return &ValidationError{Field: "prognostic state", Reason: "now and new share storage"}
	}
	p := args.Step
	switch {
	case math.IsNaN(p.Dtime) || math.IsInf(p.Dtime, 0) || p.Dtime < 0:
		return &ValidationError{Field: "dtime", Reason: fmt.Sprintf("%g is not a finite non-negative step", p.Dtime)}
	case math.IsNaN(p.DivdampFacO2) || math.IsInf(p.DivdampFacO2, 0):
		return &ValidationError{Field: "divdamp_fac_o2", Reason: "not finite"}
	case p.NdynSubsteps < 1:
		return &ValidationError{Field: "ndyn_substeps", Reason: fmt.Sprintf("%d < 1", p.NdynSubsteps)}
	case p.SubstepIndex < 0 || p.SubstepIndex >= p.NdynSubsteps:
		return &ValidationError{Field: "idyn_timestep",
			Reason: fmt.Sprintf("%d outside [0, %d)", p.SubstepIndex, p.NdynSubsteps)}
	}
	return nil
}

func (s *Solver) statusError(op string, code int) error {
	e := &StatusError{Op: op, Code: code}
	if d, ok := s.kernel.(dycore.StatusDescriber); ok {
		e.Detail = d.StatusText(code)
	}
	return e
}

// State returns the lifecycle state
func (s *Solver) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Shape returns the mesh size fixed at Init
func (s *Solver) Shape() dycore.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape
}

// Calls returns the number of Run calls that reached the kernel
func (s *Solver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// LastStatus returns the raw code of the most recent kernel call
func (s *Solver) LastStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus
}

// Close releases kernel resources. The solver cannot be used afterwards.
func (s *Solver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.kernel.(dycore.Freer); ok {
		f.Free()
	}
	s.state = Failed
}
