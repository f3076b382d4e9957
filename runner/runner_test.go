package runner

import (
	"fmt"
	"testing"

	"github.com/notargets/gocca"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/runner/builder"
	"github.com/notargets/nhsolve/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T) *gocca.OCCADevice {
	t.Helper()
	device, err := utils.TryCreateDevice()
	if err != nil {
		t.Skipf("no OCCA device: %v", err)
	}
	t.Cleanup(device.Free)
	return device
}

const scaleKernel = `
%s {
	for (int c = 0; c < U_size_0; ++c; @outer) {
		for (int k = 0; k < U_size_1; ++k; @inner) {
			const int idx = c*U_size_1 + k;
			RHS[idx] = mask[c] != 0 ? alpha*U[idx] : U[idx];
		}
	}
}`

func TestExecuteKernel(t *testing.T) {
	device := testDevice(t)
	runner := NewRunner(device)
	defer runner.Free()

	u := field.NewF64(5, 3)
	rhs := field.NewF64(5, 3)
	mask := field.Wrap([]int32{1, 0, 1, 0, 1}, 5)
	for i := range u.Data {
		u.Data[i] = float64(i)
	}

	require.NoError(t, runner.DefineBindings(
		builder.Input("U").Bind(u),
		builder.Output("RHS").Bind(rhs),
		builder.Input("mask").Bind(mask),
		builder.Scalar("alpha").Bind(2.5),
	))
	require.NoError(t, runner.AllocateDevice())

	_, err := runner.ConfigureKernel("scale",
		runner.Param("U").CopyTo(),
		runner.Param("RHS").CopyBack(),
		runner.Param("mask").CopyTo(),
		runner.Param("alpha"),
	)
	require.NoError(t, err)

	decl, err := runner.GetKernelDeclarationForConfig("scale")
	require.NoError(t, err)
	assert.Contains(t, decl, "@kernel void scale(\n\tconst double *U,")
	_, err = runner.BuildKernel(fmt.Sprintf(scaleKernel, decl), "scale")
	require.NoError(t, err)

	require.NoError(t, runner.ExecuteKernel("scale"))
	for c := 0; c < 5; c++ {
		for k := 0; k < 3; k++ {
			want := u.At(c, k)
			if mask.Data[c] != 0 {
				want *= 2.5
			}
			assert.Equal(t, want, rhs.At(c, k), "cell %d level %d", c, k)
		}
	}

	// Per-call scalar overrides the bound value
	require.NoError(t, runner.ExecuteKernel("scale", 3.0))
	assert.Equal(t, 3*u.At(4, 2), rhs.At(4, 2))
}

func TestRebind(t *testing.T) {
	device := testDevice(t)
	runner := NewRunner(device)
	defer runner.Free()

	a := field.NewF64(4)
	b := field.NewF64(4)
	out := field.NewF64(4)
	for i := range b.Data {
		b.Data[i] = float64(i + 1)
	}
	require.NoError(t, runner.DefineBindings(
		builder.Input("U").Bind(a),
		builder.Output("RHS").Bind(out),
	))
	require.NoError(t, runner.AllocateDevice())

	require.NoError(t, runner.Rebind("U", b))
	require.NoError(t, runner.CopyToDevice("U"))
	require.NoError(t, runner.Rebind("RHS", a))
	// Round trip through the device lands in the rebound host storage
	runner.PooledMemory["RHS"].CopyFrom(b.Pointer(), 32)
	require.NoError(t, runner.CopyFromDevice("RHS"))
	assert.Equal(t, b.Data, a.Data)

	assert.Error(t, runner.Rebind("U", field.NewF64(5)))
	assert.Error(t, runner.Rebind("U", field.NewI32(4)))
	assert.Error(t, runner.Rebind("missing", b))
}

func TestConfigurationErrors(t *testing.T) {
	device := testDevice(t)
	runner := NewRunner(device)
	defer runner.Free()

	require.NoError(t, runner.DefineBindings(
		builder.Input("U").Bind(field.NewF64(2)),
		builder.Scalar("alpha").Bind(1.0),
		builder.Temp("work").Type(builder.Float64).Size(2),
	))

	_, err := runner.ConfigureKernel("k", runner.Param("U"))
	assert.ErrorContains(t, err, "AllocateDevice")

	assert.ErrorContains(t, runner.DefineBindings(builder.Input("U").Bind(field.NewF64(2))), "already defined")

	require.NoError(t, runner.AllocateDevice())
	assert.Error(t, runner.DefineBindings(builder.Input("V").Bind(field.NewF64(2))))

	_, err = runner.ConfigureKernel("k", runner.Param("missing"))
	assert.ErrorContains(t, err, "not defined")
	_, err = runner.ConfigureKernel("k", runner.Param("U").CopyBack())
	assert.ErrorContains(t, err, "cannot be copied back")
	_, err = runner.ConfigureKernel("k", runner.Param("alpha").CopyTo())
	assert.ErrorContains(t, err, "cannot be copied")
	_, err = runner.ConfigureKernel("k", runner.Param("U"), runner.Param("U"))
	assert.ErrorContains(t, err, "twice")

	assert.ErrorContains(t, runner.ExecuteKernel("nope"), "not configured")
	_, err = runner.ConfigureKernel("k", runner.Param("U").CopyTo(), runner.Param("work"), runner.Param("alpha"))
	require.NoError(t, err)
	assert.ErrorContains(t, runner.ExecuteKernel("k"), "not compiled")
	assert.Error(t, runner.CopyToDevice("work"))
}

// Copy actions declared on the builder apply whenever a kernel lists the
// binding without actions of its own. No device memory is touched.
func TestConfigureKernelDefaultActions(t *testing.T) {
	runner := NewRunner(nil)
	require.NoError(t, runner.DefineBindings(
		builder.Input("U").Bind(field.NewF64(3)).CopyTo(),
		builder.Output("RHS").Bind(field.NewF64(3)).CopyBack(),
		builder.InOut("acc").Bind(field.NewF64(3)).Copy(),
		builder.Input("geom").Bind(field.NewF64(3)),
		builder.Input("bad").Bind(field.NewF64(3)).CopyBack(),
		builder.Scalar("alpha").Bind(1.0),
	))
	assert.Equal(t, CopyTo, runner.Bindings["U"].DefaultActions)
	assert.Equal(t, Copy, runner.Bindings["acc"].DefaultActions)
	assert.Equal(t, NoAction, runner.Bindings["geom"].DefaultActions)
	runner.IsAllocated = true

	config, err := runner.ConfigureKernel("k",
		runner.Param("U"), runner.Param("RHS"), runner.Param("acc"),
		runner.Param("geom"), runner.Param("alpha"))
	require.NoError(t, err)
	want := []ActionFlags{CopyTo, CopyBack, Copy, NoAction, NoAction}
	for i, p := range config.Parameters {
		assert.Equal(t, want[i], p.Actions, p.Binding.Name)
	}

	// Explicit actions replace the defaults
	config, err = runner.ConfigureKernel("k2", runner.Param("U").NoCopy(), runner.Param("acc").CopyBack())
	require.NoError(t, err)
	assert.Equal(t, NoAction, config.Parameters[0].Actions)
	assert.Equal(t, CopyBack, config.Parameters[1].Actions)

	_, err = runner.ConfigureKernel("k3", runner.Param("bad"))
	assert.ErrorContains(t, err, "cannot be copied back")

	decl, err := runner.GetKernelDeclarationForConfig("k2")
	require.NoError(t, err)
	assert.Equal(t, "@kernel void k2(\n\tconst double *U,\n\tconst int U_size_0,\n\tdouble *acc,\n\tconst int acc_size_0\n)", decl)
	_, err = runner.GetKernelDeclarationForConfig("missing")
	assert.Error(t, err)
}

func TestConvertScalar(t *testing.T) {
	v, err := convertScalar(3, builder.Float64)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = convertScalar(true, builder.INT32)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	v, err = convertScalar(2.0, builder.INT64)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = convertScalar("x", builder.Float64)
	assert.Error(t, err)
}
