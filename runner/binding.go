// File: runner/binding.go

package runner

import (
	"fmt"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/runner/builder"
	"go.uber.org/zap"
	"unsafe"
)

// ActionFlags represents the memory operations to perform for a parameter
type ActionFlags int

const (
	// No action
	NoAction ActionFlags = 0
	// Copy from host to device before kernel execution
	CopyTo ActionFlags = 1 << iota
	// Copy from device to host after kernel execution
	CopyBack
	// Bidirectional copy (CopyTo | CopyBack)
	Copy = CopyTo | CopyBack
)

// DeviceBinding is a named host↔device data relationship
type DeviceBinding struct {
	Name string

	// *field.F64, *field.I32, []float64, []int32 or a scalar
	HostBinding interface{}

	DataType builder.DataType
	Size     int64
	Extents  []int

	IsScalar bool
	IsTemp   bool
	IsOutput bool

	// Copies performed when a kernel lists the binding without its own
	// actions, taken from the builder's CopyTo/CopyBack/Copy
	DefaultActions ActionFlags

	ParamSpec *builder.ParamSpec
}

// Bytes returns the device allocation size
func (b *DeviceBinding) Bytes() int64 {
	return b.Size * b.DataType.Size()
}

// ParameterUsage represents how a binding is used in a specific kernel
type ParameterUsage struct {
	Binding *DeviceBinding
	Actions ActionFlags
}

// HasAction checks if a specific action is set
func (pu *ParameterUsage) HasAction(action ActionFlags) bool {
	return pu.Actions&action != 0
}

// NeedsCopyTo returns true if this usage requires host→device copy
func (pu *ParameterUsage) NeedsCopyTo() bool {
	return pu.HasAction(CopyTo)
}

// NeedsCopyBack returns true if this usage requires device→host copy
func (pu *ParameterUsage) NeedsCopyBack() bool {
	return pu.HasAction(CopyBack)
}

// DefineBindings establishes host↔device data relationships. Bindings are
// fixed once AllocateDevice has been called.
func (kr *Runner) DefineBindings(params ...*builder.ParamBuilder) error {
	if kr.IsAllocated {
		return fmt.Errorf("bindings cannot be defined after AllocateDevice has been called")
	}
	for _, p := range params {
		spec := p.Spec
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid parameter %s: %w", spec.Name, err)
		}
		if _, exists := kr.Bindings[spec.Name]; exists {
			return fmt.Errorf("binding %s already defined", spec.Name)
		}
		var defaults ActionFlags
		if spec.NeedsCopyTo() {
			defaults |= CopyTo
		}
		if spec.NeedsCopyBack() {
			defaults |= CopyBack
		}
		kr.Bindings[spec.Name] = &DeviceBinding{
			Name:        spec.Name,
			HostBinding: spec.HostBinding,
			DataType:    spec.DataType,
			Size:        spec.Size,
			Extents:     append([]int(nil), spec.Extents...),
			IsScalar:    spec.Direction == builder.DirectionScalar,
			IsTemp:      spec.Direction == builder.DirectionTemp,
			IsOutput:    !spec.IsConst(),
			ParamSpec:   &spec,

			DefaultActions: defaults,
		}
		kr.order = append(kr.order, spec.Name)
	}
	return nil
}

// HasBinding checks if a binding exists
func (kr *Runner) HasBinding(name string) bool {
	_, ok := kr.Bindings[name]
	return ok
}

// AllocateDevice allocates device memory for every array binding
func (kr *Runner) AllocateDevice() error {
	if kr.IsAllocated {
		return fmt.Errorf("device already allocated")
	}
	var total int64
	for _, name := range kr.order {
		b := kr.Bindings[name]
		if b.IsScalar {
			continue
		}
		if b.Size == 0 {
			// OCCA rejects zero byte allocations; an empty Field still
			// needs a valid pointer argument
			kr.PooledMemory[name] = kr.Device.Malloc(b.DataType.Size(), nil, nil)
			continue
		}
		kr.PooledMemory[name] = kr.Device.Malloc(b.Bytes(), nil, nil)
		total += b.Bytes()
	}
	kr.IsAllocated = true
	kr.log.Debug("device allocated",
		zap.Int("bindings", len(kr.order)),
		zap.Int64("bytes", total))
	return nil
}

// Rebind points an existing array binding at new host storage of the same
// type and size. Used when double-buffered state swaps between calls.
func (kr *Runner) Rebind(name string, hostVar interface{}) error {
	b, ok := kr.Bindings[name]
	if !ok {
		return fmt.Errorf("binding %s not found", name)
	}
	if b.IsScalar || b.IsTemp {
		return fmt.Errorf("binding %s has no host storage", name)
	}
	spec := builder.Input(name).Bind(hostVar).Spec
	if spec.DataType != b.DataType || spec.Size != b.Size {
		return fmt.Errorf("rebind %s: %s[%d] does not match %s[%d]",
			name, spec.DataType, spec.Size, b.DataType, b.Size)
	}
	b.HostBinding = hostVar
	b.ParamSpec.HostBinding = hostVar
	return nil
}

// hostPointer returns the address and byte count of the host storage
func hostPointer(host interface{}) (unsafe.Pointer, int64, error) {
	switch h := host.(type) {
	case *field.F64:
		return h.Pointer(), int64(len(h.Data)) * 8, nil
	case *field.I32:
		return h.Pointer(), int64(len(h.Data)) * 4, nil
	case []float64:
		if len(h) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&h[0]), int64(len(h)) * 8, nil
	case []int32:
		if len(h) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&h[0]), int64(len(h)) * 4, nil
	default:
		return nil, 0, fmt.Errorf("unsupported host binding %T", host)
	}
}
