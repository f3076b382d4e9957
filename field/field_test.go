package field

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestFieldRowMajorIndexing(t *testing.T) {
	f := NewF64(2, 3, 4)
	assert.Equal(t, 3, f.Rank())
	assert.Equal(t, 24, f.Len())
	require.NoError(t, f.Check())

	f.Set(7.5, 1, 2, 3)
	assert.Equal(t, 23, f.Offset(1, 2, 3))
	assert.Equal(t, 7.5, f.Data[23])
	assert.Equal(t, 7.5, f.At(1, 2, 3))

	row := f.Row(1)
	assert.Len(t, row, 12)
	row[0] = -1
	assert.Equal(t, -1.0, f.At(1, 0, 0), "Row must alias storage")
}

func TestWrapDoesNotCopy(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	f := Wrap(data, 2, 2)
	data[3] = 42
	assert.Equal(t, 42.0, f.At(1, 1))
	assert.Equal(t, &data[0], (*float64)(f.Pointer()))
}

func TestCheckDetectsSizeMismatch(t *testing.T) {
	f := Wrap(make([]float64, 5), 2, 3)
	assert.Error(t, f.Check())

	g := Wrap(make([]int32, 6), 2, 3)
	assert.NoError(t, g.Check())
	assert.Equal(t, Int32, g.Type())
}

func TestCloneAndCopyFrom(t *testing.T) {
	f := NewF64(3, 2)
	f.Fill(2)
	c := f.Clone()
	c.Data[0] = 9
	assert.Equal(t, 2.0, f.Data[0])

	require.NoError(t, f.CopyFrom(c))
	assert.Equal(t, 9.0, f.Data[0])
	assert.Error(t, f.CopyFrom(NewF64(2, 3)))
}

func TestMatrixSharesStorage(t *testing.T) {
	f := NewF64(2, 3)
	m, err := Matrix(f)
	require.NoError(t, err)
	m.Set(1, 2, 5)
	assert.Equal(t, 5.0, f.At(1, 2))

	_, err = Matrix(NewF64(4))
	assert.Error(t, err)

	_, err = Matrix(NewF64(0, 3))
	assert.Error(t, err)
}

func TestReductions(t *testing.T) {
	a := Wrap([]float64{1, -4, 2}, 3)
	b := Wrap([]float64{1, -4, 2.5}, 3)
	assert.Equal(t, 4.0, MaxAbs(a))
	assert.InDelta(t, -1.0/3.0, Mean(a), 1e-15)
	assert.InDelta(t, 0.5, MaxDiff(a, b), 1e-15)
	assert.True(t, IsFinite(a))
}
