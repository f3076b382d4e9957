package field

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestFlattenPointerThenExtents(t *testing.T) {
	for rank := 1; rank <= 3; rank++ {
		ext := []int{3, 4, 5}[:rank]
		f := NewF64(ext...)
		args := Flatten("x", f)
		require.Len(t, args, 1+rank)
		assert.Equal(t, ArgPointer, args[0].Kind)
		assert.Equal(t, f.Pointer(), args[0].Ptr)
		for d := 0; d < rank; d++ {
			a := args[1+d]
			assert.Equal(t, ArgExtent, a.Kind)
			assert.Equal(t, ExtentName("x", d), a.Name)
			assert.Equal(t, int32(ext[d]), a.Value)
		}
	}
}

func TestFlattenEmptyStorageYieldsNilPointer(t *testing.T) {
	args := Flatten("e", Wrap[int32](nil, 0))
	require.Len(t, args, 2)
	assert.Nil(t, args[0].Ptr)
	assert.Equal(t, Int32, args[0].Type)
}

func TestLayoutRoundTrip(t *testing.T) {
	var args []Argument
	args = append(args, Flatten("a", NewF64(2, 3))...)
	args = append(args, Flatten("m", NewI32(2))...)
	args = append(args, Float("dtime", 1.5), Bool("flag", true))

	groups, scalars, err := Layout(args)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{2, 3}, groups[0].Extents)
	assert.Equal(t, Int32, groups[1].Type)
	assert.Equal(t, 1, groups[1].Rank())
	require.Len(t, scalars, 2)
	assert.Equal(t, int32(1), scalars[1].Int32Value())
	assert.Equal(t, 1.5, scalars[0].Float64Value())
}

func TestLayoutRejectsMisorderedArguments(t *testing.T) {
	tests := []struct {
		name string
		args []Argument
	}{
		{"field after scalar", append([]Argument{Int("n", 1)}, Flatten("a", NewF64(1))...)},
		{"orphan extent", []Argument{Extent("a", 0, 1)}},
		{"foreign extent", []Argument{Flatten("a", NewF64(1))[0], Extent("b", 0, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Layout(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestPrototype(t *testing.T) {
	var args []Argument
	args = append(args, Flatten("rho", NewF64(1, 1))...)
	args = append(args, Flatten("mask", NewI32(1))...)
	args = append(args, Float("dtime", 0), Int("n", 0))
	proto := Prototype("f", args)
	assert.True(t, strings.HasPrefix(proto, "extern int f("))
	for _, want := range []string{"double *rho", "int rho_size_0", "int rho_size_1",
		"int *mask", "int mask_size_0", "double dtime", "int n);"} {
		assert.Contains(t, proto, want)
	}
}
