// File: runner/kernel_execution.go

package runner

import (
	"fmt"
	"github.com/notargets/nhsolve/runner/builder"
)

// ExecuteKernel copies inputs, launches the kernel and copies outputs back.
// scalarValues override scalar bindings in the order they appear in the
// kernel configuration; missing values fall back to the bound value.
func (kr *Runner) ExecuteKernel(name string, scalarValues ...interface{}) error {
	config, exists := kr.KernelConfigs[name]
	if !exists {
		return fmt.Errorf("kernel %s not configured - use ConfigureKernel first", name)
	}
	kernel, exists := kr.Kernels[name]
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", name)
	}

	for i := range config.Parameters {
		if config.Parameters[i].NeedsCopyTo() {
			if err := kr.CopyToDevice(config.Parameters[i].Binding.Name); err != nil {
				return fmt.Errorf("pre-kernel copy failed: %w", err)
			}
		}
	}

	args, err := kr.buildKernelArgumentsFromConfig(config, scalarValues)
	if err != nil {
		return fmt.Errorf("failed to build arguments: %w", err)
	}
	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	kr.Device.Finish()

	for i := range config.Parameters {
		if config.Parameters[i].NeedsCopyBack() {
			if err := kr.CopyFromDevice(config.Parameters[i].Binding.Name); err != nil {
				return fmt.Errorf("post-kernel copy failed: %w", err)
			}
		}
	}
	return nil
}

// buildKernelArgumentsFromConfig expands each array into its memory handle
// followed by int32 extents
func (kr *Runner) buildKernelArgumentsFromConfig(config *KernelConfig, scalarValues []interface{}) ([]interface{}, error) {
	args := make([]interface{}, 0, 2*len(config.Parameters))
	next := 0
	for _, p := range config.Parameters {
		b := p.Binding
		if b.IsScalar {
			var v interface{}
			if next < len(scalarValues) {
				v = scalarValues[next]
				next++
			} else if b.HostBinding != nil {
				v = b.HostBinding
			} else {
				return nil, fmt.Errorf("no value for scalar %s", b.Name)
			}
			cv, err := convertScalar(v, b.DataType)
			if err != nil {
				return nil, fmt.Errorf("scalar %s: %w", b.Name, err)
			}
			args = append(args, cv)
			continue
		}
		mem, ok := kr.PooledMemory[b.Name]
		if !ok {
			return nil, fmt.Errorf("no device memory for %s", b.Name)
		}
		args = append(args, mem)
		for _, e := range b.ParamSpec.ExtentValues() {
			args = append(args, int32(e))
		}
	}
	if next < len(scalarValues) {
		return nil, fmt.Errorf("kernel %s: %d unused scalar values", config.Name, len(scalarValues)-next)
	}
	return args, nil
}

// convertScalar coerces v to the Go type gocca maps onto the OKL scalar
func convertScalar(v interface{}, dt builder.DataType) (interface{}, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	default:
		return nil, fmt.Errorf("unsupported scalar type %T", v)
	}
	switch dt {
	case builder.Float32:
		return float32(f), nil
	case builder.Float64:
		return f, nil
	case builder.INT32:
		return int32(f), nil
	case builder.INT64:
		return int64(f), nil
	default:
		return nil, fmt.Errorf("unknown scalar type %s", dt)
	}
}
