package builder

import (
	"testing"

	"github.com/notargets/nhsolve/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindInfersFromField(t *testing.T) {
	f := field.NewF64(4, 3)
	p := Input("theta").Bind(f).Spec
	assert.Equal(t, Float64, p.DataType)
	assert.EqualValues(t, 12, p.Size)
	assert.Equal(t, []int{4, 3}, p.Extents)
	assert.Equal(t, 2, p.Rank())

	m := field.NewI32(5)
	q := Input("mask").Bind(m).Spec
	assert.Equal(t, INT32, q.DataType)
	assert.Equal(t, []int{5}, q.ExtentValues())
}

func TestBindInfersFromSliceAndScalar(t *testing.T) {
	p := Output("out").Bind(make([]float64, 7)).Spec
	assert.Equal(t, Float64, p.DataType)
	assert.EqualValues(t, 7, p.Size)
	assert.Equal(t, 1, p.Rank())
	assert.Equal(t, []int{7}, p.ExtentValues())

	s := Scalar("dt").Bind(2.5).Spec
	assert.Equal(t, Float64, s.DataType)
	assert.Equal(t, 0, s.Rank())

	i := Scalar("n").Bind(int32(3)).Spec
	assert.Equal(t, INT32, i.DataType)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    ParamSpec
		wantErr string
	}{
		{"empty name", ParamSpec{}, "empty"},
		{"array without size", Input("a").Type(Float64).Spec, "needs size"},
		{"array without type", Temp("a").Size(3).Spec, "needs type"},
		{"temp copy", Temp("a").Type(Float64).Size(3).CopyTo().Spec, "copy"},
		{"scalar untyped", Scalar("s").Spec, "needs type"},
		{"valid temp", Temp("a").Type(Float64).Extents(2, 3).Spec, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCopyFlags(t *testing.T) {
	p := InOut("x").Bind([]float64{1}).Copy().Spec
	assert.True(t, p.NeedsCopyTo())
	assert.True(t, p.NeedsCopyBack())
	assert.False(t, p.IsConst())

	p = InOut("x").Bind([]float64{1}).Copy().NoCopy().Spec
	assert.False(t, p.NeedsCopyTo())
	assert.False(t, p.NeedsCopyBack())

	// Without a binding there is nothing to copy
	p = Output("x").Type(Float64).Size(1).CopyBack().Spec
	assert.False(t, p.NeedsCopyBack())
}

func TestGenerateKernelSignature(t *testing.T) {
	specs := []ParamSpec{
		Input("vn").Bind(field.NewF64(6, 2)).Spec,
		Output("w").Bind(field.NewF64(4, 3)).Spec,
		Input("mask").Bind(field.NewI32(4)).Spec,
		Scalar("dtime").Bind(1.0).Spec,
	}
	sig := GenerateKernelSignature(specs)
	want := "const double *vn,\n\t" +
		"const int vn_size_0,\n\t" +
		"const int vn_size_1,\n\t" +
		"double *w,\n\t" +
		"const int w_size_0,\n\t" +
		"const int w_size_1,\n\t" +
		"const int *mask,\n\t" +
		"const int mask_size_0,\n\t" +
		"const double dtime"
	assert.Equal(t, want, sig)

	decl := GenerateKernelDeclaration("update", specs[:1])
	assert.Equal(t, "@kernel void update(\n\tconst double *vn,\n\tconst int vn_size_0,\n\tconst int vn_size_1\n)", decl)
}

func TestDataType(t *testing.T) {
	assert.EqualValues(t, 4, INT32.Size())
	assert.EqualValues(t, 8, Float64.Size())
	assert.Equal(t, "long", INT64.CName())
	assert.Equal(t, INT32, FromField(field.Int32))
	assert.Equal(t, Float64, FromField(field.Float64))
}
