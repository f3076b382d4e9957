package timeloop

import (
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
)

// Sample is the state summary taken after one outer step
type Sample struct {
	Step    int
	MaxW    float64
	MeanRho float64
	MaxVn   float64
}

// Diagnostics records a Sample per outer step
type Diagnostics struct {
	Samples []Sample
}

// OnSubstep implements Observer
func (d *Diagnostics) OnSubstep(int, int, *dycore.RunArgs) {}

// OnStep implements StepObserver
func (d *Diagnostics) OnStep(step int, args *dycore.RunArgs) {
	d.Samples = append(d.Samples, Sample{
		Step:    step,
		MaxW:    field.MaxAbs(args.Now.W),
		MeanRho: field.Mean(args.Now.Rho),
		MaxVn:   field.MaxAbs(args.Now.Vn),
	})
}

// Series returns one value per sample, in step order
func (d *Diagnostics) Series(value func(Sample) float64) []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = value(s)
	}
	return out
}
