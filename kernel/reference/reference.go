// Package reference is the pure Go implementation of the dycore boundary. It
// integrates every cell column and every edge independently, so the
// horizontal operators of the full scheme are represented only by the
// tendencies the caller passes in.
package reference

import (
	"math"
	"runtime"
	"sync"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/kernel/status"
	"github.com/notargets/nhsolve/logging"
	"go.uber.org/zap"
)

// Kernel implements dycore.Kernel
type Kernel struct {
	workers     int
	initialized bool
	failed      int
	shape       dycore.Shape
	cfg         dycore.Config
	params      dycore.Params
	m           metrics
	ddO2        []float64 // second order damping profile on half levels
	ddO4        []float64 // enhanced damping profile on half levels
	scratch     []*columnScratch
	log         *zap.Logger
}

// Option configures a Kernel
type Option func(*Kernel)

// WithWorkers sets the number of goroutines sharing the columns. Results do
// not depend on it.
func WithWorkers(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.workers = n
		}
	}
}

// New returns an uninitialized kernel
func New(opts ...Option) *Kernel {
	k := &Kernel{workers: runtime.GOMAXPROCS(0), log: logging.Logger()}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Init validates the configuration and geometry and keeps a private copy of
// the metric fields.
func (k *Kernel) Init(a *dycore.InitArgs) int {
	if k.failed != status.OK {
		return k.failed
	}
	shape, code := Validate(a)
	if code != status.OK {
		return k.fail(code)
	}

	k.shape = shape
	k.cfg = a.Config
	k.params = dycore.NewParams(a.Config)
	k.m = copyMetrics(a)
	k.ddO2, k.ddO4 = DampingProfiles(a.Config, k.m.vctA, k.m.scalfacDd3d)
	k.scratch = make([]*columnScratch, k.workers)
	for i := range k.scratch {
		k.scratch[i] = newColumnScratch(shape.NLevels)
	}
	k.initialized = true
	return status.OK
}

// Validate runs the Init checks shared by every backend and returns the
// inferred shape with status.OK, or the failing status code
func Validate(a *dycore.InitArgs) (dycore.Shape, int) {
	log := logging.Logger()
	if err := a.Config.Validate(); err != nil {
		log.Debug("init rejected config", zap.Error(err))
		return dycore.Shape{}, status.InvalidConfig
	}
	shape, ok := a.InferShape()
	if !ok || shape.Validate() != nil || shape.NLevels != a.Config.NumLevels {
		return dycore.Shape{}, status.InconsistentGeometry
	}
	if err := CheckGeometry(a, shape); err != nil {
		log.Debug("init rejected geometry", zap.Error(err))
		return dycore.Shape{}, status.InconsistentGeometry
	}
	return shape, status.OK
}

// DampingProfiles returns the second and fourth order divergence damping
// weights of w on half levels. Both vanish at the top and surface.
func DampingProfiles(c dycore.Config, vctA, scalfac *field.F64) (o2, o4 []float64) {
	nlev := len(vctA.Data) - 1
	o2 = make([]float64, nlev+1)
	o4 = make([]float64, nlev+1)
	params := dycore.NewParams(c)
	for h := 1; h < nlev; h++ {
		z := vctA.Data[h]
		weight := scalfac.Data[h] * divdamp3DWeight(c, z)
		if c.DivdampOrder == dycore.DivdampSecond || c.DivdampOrder == dycore.DivdampCombined {
			o2[h] = weight
		}
		if c.DivdampOrder == dycore.DivdampFourth || c.DivdampOrder == dycore.DivdampCombined {
			o4[h] = weight * params.EnhancedDivdampFactor(z)
		}
	}
	return o2, o4
}

// divdamp3DWeight is the share of the damping applied to w at height z
func divdamp3DWeight(c dycore.Config, z float64) float64 {
	switch c.DivdampType {
	case dycore.Divdamp2D:
		return 0
	case dycore.Divdamp3DTo2D:
		switch {
		case z <= c.DivdampTransStart:
			return 1
		case z >= c.DivdampTransEnd:
			return 0
		default:
			return (c.DivdampTransEnd - z) / (c.DivdampTransEnd - c.DivdampTransStart)
		}
	default:
		return 1
	}
}

// Run advances one dynamics substep
func (k *Kernel) Run(a *dycore.RunArgs) int {
	if k.failed != status.OK {
		return k.failed
	}
	if !k.initialized {
		return k.fail(status.NotInitialized)
	}
	p := a.Step
	if !ValidStep(p) {
		return k.fail(status.InvalidStep)
	}
	if err := dycore.CheckBindings(a.Bindings(), k.shape); err != nil {
		k.log.Debug("reference run rejected fields", zap.Error(err))
		return k.fail(status.InvalidStep)
	}

	wgtNow, wgtNew := k.params.VelocityWeights(p.AtInitialTimestep)
	st := step{
		dt:        p.Dtime,
		wgtNow:    wgtNow,
		wgtNew:    wgtNew,
		scalO2:    p.DivdampFacO2,
		first:     p.SubstepIndex == 0,
		last:      p.SubstepIndex == p.NdynSubsteps-1,
		prepAdv:   p.PrepAdvection,
		rSubsteps: 1 / float64(p.NdynSubsteps),
		ndyn:      float64(p.NdynSubsteps),
	}

	k.parallel(k.shape.NCells, func(w, c int) { k.updateColumn(a, c, st, k.scratch[w]) })
	k.parallel(k.shape.NEdges, func(_, e int) { k.updateEdge(a, e, st) })

	for _, f := range []*field.F64{a.New.Rho, a.New.Exner, a.New.W, a.New.ThetaV, a.New.Vn} {
		if !field.IsFinite(f) {
			return k.fail(status.Unstable)
		}
	}
	return status.OK
}

// ValidStep reports whether the per-call scalars can be integrated
func ValidStep(p dycore.StepParams) bool {
	return p.NdynSubsteps >= 1 && p.SubstepIndex >= 0 && p.SubstepIndex < p.NdynSubsteps &&
		p.Dtime >= 0 && !math.IsInf(p.Dtime, 0) &&
		!math.IsNaN(p.DivdampFacO2) && !math.IsInf(p.DivdampFacO2, 0)
}

// parallel splits [0, n) into contiguous blocks, one per worker
func (k *Kernel) parallel(n int, fn func(worker, i int)) {
	workers := k.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(0, i)
		}
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(w, i)
			}
		}(w, lo, hi)
	}
	wg.Wait()
}

func (k *Kernel) fail(code int) int {
	k.failed = code
	k.log.Warn("reference kernel failed", zap.Int("status", code), zap.String("reason", status.Text(code)))
	return code
}

// StatusText implements dycore.StatusDescriber
func (k *Kernel) StatusText(code int) string { return status.Text(code) }
