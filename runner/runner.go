// File: runner/runner.go

package runner

import (
	"fmt"
	"github.com/notargets/gocca"
	"github.com/notargets/nhsolve/logging"
	"go.uber.org/zap"
)

// Runner owns device memory for a set of named bindings and the kernels
// built against them
type Runner struct {
	Device         *gocca.OCCADevice
	Kernels        map[string]*gocca.OCCAKernel
	PooledMemory   map[string]*gocca.OCCAMemory
	Bindings       map[string]*DeviceBinding
	KernelConfigs  map[string]*KernelConfig
	KernelPreamble string
	IsAllocated    bool

	order []string
	log   *zap.Logger
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice) *Runner {
	return &Runner{
		Device:        device,
		Kernels:       make(map[string]*gocca.OCCAKernel),
		PooledMemory:  make(map[string]*gocca.OCCAMemory),
		Bindings:      make(map[string]*DeviceBinding),
		KernelConfigs: make(map[string]*KernelConfig),
		log:           logging.Logger().Named("runner"),
	}
}

// BuildKernel compiles kernelSource, prefixed with the preamble, and
// registers it under kernelName
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	fullSource := kernelSource
	if kr.KernelPreamble != "" {
		fullSource = kr.KernelPreamble + "\n" + kernelSource
	}

	var kernel *gocca.OCCAKernel
	var err error

	if kr.Device.Mode() == "OpenMP" {
		// OCCA does not pass -O3 to OpenMP builds by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}

	if old, ok := kr.Kernels[kernelName]; ok {
		old.Free()
	}
	kr.Kernels[kernelName] = kernel
	kr.log.Debug("kernel built",
		zap.String("kernel", kernelName),
		zap.String("mode", kr.Device.Mode()))
	return kernel, nil
}

// Free releases all kernels and device memory. The device itself belongs to
// the caller.
func (kr *Runner) Free() {
	for name, kernel := range kr.Kernels {
		kernel.Free()
		delete(kr.Kernels, name)
	}
	for name, mem := range kr.PooledMemory {
		mem.Free()
		delete(kr.PooledMemory, name)
	}
	kr.IsAllocated = false
}
