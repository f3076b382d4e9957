package field

import (
	"fmt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
)

// Matrix returns a rank-2 float field as a gonum matrix sharing its storage.
// Writes through the matrix are visible in the field and vice versa.
func Matrix(f *F64) (*mat.Dense, error) {
	if f.Rank() != 2 {
		return nil, fmt.Errorf("matrix view requires rank 2, field has rank %d", f.Rank())
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("matrix view of empty field")
	}
	return mat.NewDense(f.Extents[0], f.Extents[1], f.Data), nil
}

// MaxAbs returns the largest absolute value in the field
func MaxAbs(f *F64) float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(f.Data)), math.Abs(floats.Min(f.Data)))
}

// Mean returns the arithmetic mean of the field
func Mean(f *F64) float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return floats.Sum(f.Data) / float64(len(f.Data))
}

// MaxDiff returns the max-norm distance between two equally shaped fields
func MaxDiff(a, b *F64) float64 {
	if len(a.Data) == 0 {
		return 0
	}
	return floats.Distance(a.Data, b.Data, math.Inf(1))
}

// IsFinite reports whether the field holds no NaN or Inf values
func IsFinite(f *F64) bool {
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
