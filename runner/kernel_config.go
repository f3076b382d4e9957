// File: runner/kernel_config.go

package runner

import (
	"fmt"
	"github.com/notargets/nhsolve/runner/builder"
)

// KernelConfig lists the bindings a kernel takes, in argument order, and the
// copies to perform around each launch
type KernelConfig struct {
	Name       string
	Parameters []ParameterUsage
}

// ParamConfig selects a binding and its copy actions for one kernel. A
// binding listed without actions uses the copies declared on its builder.
type ParamConfig struct {
	name     string
	actions  ActionFlags
	explicit bool
}

// Param starts the configuration of a binding for ConfigureKernel
func (kr *Runner) Param(name string) *ParamConfig {
	return &ParamConfig{name: name}
}

// CopyTo adds a host→device copy before the launch
func (pc *ParamConfig) CopyTo() *ParamConfig {
	pc.actions |= CopyTo
	pc.explicit = true
	return pc
}

// CopyBack adds a device→host copy after the launch
func (pc *ParamConfig) CopyBack() *ParamConfig {
	pc.actions |= CopyBack
	pc.explicit = true
	return pc
}

// Copy adds both copies
func (pc *ParamConfig) Copy() *ParamConfig {
	pc.actions |= Copy
	pc.explicit = true
	return pc
}

// NoCopy clears all copies, including the builder defaults
func (pc *ParamConfig) NoCopy() *ParamConfig {
	pc.actions = NoAction
	pc.explicit = true
	return pc
}

// ConfigureKernel creates a kernel-specific parameter configuration
func (kr *Runner) ConfigureKernel(name string, params ...*ParamConfig) (*KernelConfig, error) {
	if !kr.IsAllocated {
		return nil, fmt.Errorf("device memory not allocated - call AllocateDevice first")
	}

	config := &KernelConfig{
		Name:       name,
		Parameters: make([]ParameterUsage, 0, len(params)),
	}
	seen := make(map[string]bool, len(params))
	for _, pc := range params {
		b, ok := kr.Bindings[pc.name]
		if !ok {
			return nil, fmt.Errorf("kernel %s: binding %s not defined", name, pc.name)
		}
		if seen[pc.name] {
			return nil, fmt.Errorf("kernel %s: parameter %s listed twice", name, pc.name)
		}
		seen[pc.name] = true
		actions := pc.actions
		if !pc.explicit {
			actions = b.DefaultActions
		}
		if actions != NoAction && (b.IsScalar || b.IsTemp) {
			return nil, fmt.Errorf("kernel %s: parameter %s cannot be copied", name, pc.name)
		}
		if actions&CopyBack != 0 && !b.IsOutput {
			return nil, fmt.Errorf("kernel %s: input %s cannot be copied back", name, pc.name)
		}
		config.Parameters = append(config.Parameters, ParameterUsage{Binding: b, Actions: actions})
	}
	kr.KernelConfigs[name] = config
	return config, nil
}

// GetKernelDeclarationForConfig returns the OKL kernel declaration whose
// parameters match the arguments ExecuteKernel will pass
func (kr *Runner) GetKernelDeclarationForConfig(kernelName string) (string, error) {
	config, ok := kr.KernelConfigs[kernelName]
	if !ok {
		return "", fmt.Errorf("kernel %s not configured", kernelName)
	}
	specs := make([]builder.ParamSpec, 0, len(config.Parameters))
	for _, p := range config.Parameters {
		specs = append(specs, *p.Binding.ParamSpec)
	}
	return builder.GenerateKernelDeclaration(kernelName, specs), nil
}
