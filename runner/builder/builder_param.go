package builder

import (
	"fmt"
	"github.com/notargets/nhsolve/field"
	"reflect"
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
	DirectionTemp
	DirectionScalar
)

// ParamBuilder provides a fluent interface for building kernel parameters
type ParamBuilder struct {
	Spec ParamSpec
}

// ParamSpec holds the complete specification for a kernel parameter
type ParamSpec struct {
	Name        string
	Direction   Direction
	HostBinding interface{}

	DataType DataType
	Size     int64
	// Extents of a multi-dimensional Field, outermost first. Each extent is
	// passed to the kernel as an int argument after the array pointer.
	Extents []int

	DoCopyTo   bool
	DoCopyBack bool
}

func newParam(name string, dir Direction) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: name, Direction: dir}}
}

// Input creates a parameter specification for a const input
func Input(deviceName string) *ParamBuilder { return newParam(deviceName, DirectionInput) }

// Output creates a parameter specification for a non-const output
func Output(deviceName string) *ParamBuilder { return newParam(deviceName, DirectionOutput) }

// InOut creates a parameter specification for a non-const input/output
func InOut(deviceName string) *ParamBuilder { return newParam(deviceName, DirectionInOut) }

// Scalar creates a parameter specification for a scalar value
func Scalar(deviceName string) *ParamBuilder { return newParam(deviceName, DirectionScalar) }

// Temp creates a parameter specification for a device-only temporary array
func Temp(deviceName string) *ParamBuilder { return newParam(deviceName, DirectionTemp) }

// Bind associates a host variable with this parameter
func (p *ParamBuilder) Bind(hostVar interface{}) *ParamBuilder {
	p.Spec.HostBinding = hostVar
	p.Spec.inferFromBinding()
	return p
}

// Copy sets bidirectional copy (host→device before, device→host after)
func (p *ParamBuilder) Copy() *ParamBuilder {
	p.Spec.DoCopyTo = true
	p.Spec.DoCopyBack = true
	return p
}

// CopyTo sets host→device copy before kernel execution
func (p *ParamBuilder) CopyTo() *ParamBuilder {
	p.Spec.DoCopyTo = true
	return p
}

// CopyBack sets device→host copy after kernel execution
func (p *ParamBuilder) CopyBack() *ParamBuilder {
	p.Spec.DoCopyBack = true
	return p
}

// NoCopy explicitly disables data movement
func (p *ParamBuilder) NoCopy() *ParamBuilder {
	p.Spec.DoCopyTo = false
	p.Spec.DoCopyBack = false
	return p
}

// Type sets explicit type (mainly for Temp arrays)
func (p *ParamBuilder) Type(dataType DataType) *ParamBuilder {
	p.Spec.DataType = dataType
	return p
}

// Size sets explicit size (mainly for Temp arrays)
func (p *ParamBuilder) Size(elements int) *ParamBuilder {
	p.Spec.Size = int64(elements)
	return p
}

// Extents sets explicit extents (mainly for Temp arrays)
func (p *ParamBuilder) Extents(extents ...int) *ParamBuilder {
	p.Spec.Extents = append([]int(nil), extents...)
	n := 1
	for _, e := range extents {
		n *= e
	}
	p.Spec.Size = int64(n)
	return p
}

// inferFromBinding extracts type, size and extents from the host binding
func (p *ParamSpec) inferFromBinding() {
	switch b := p.HostBinding.(type) {
	case nil:
		return
	case *field.F64:
		p.DataType = Float64
		p.Size = int64(len(b.Data))
		p.Extents = append([]int(nil), b.Extents...)
		return
	case *field.I32:
		p.DataType = INT32
		p.Size = int64(len(b.Data))
		p.Extents = append([]int(nil), b.Extents...)
		return
	}

	v := reflect.ValueOf(p.HostBinding)
	t := v.Type()
	if t.Kind() == reflect.Slice {
		p.Size = int64(v.Len())
		p.DataType = kindType(t.Elem().Kind())
		return
	}
	p.DataType = kindType(t.Kind())
	p.Size = 1
}

func kindType(kind reflect.Kind) DataType {
	switch kind {
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Int32:
		return INT32
	case reflect.Int, reflect.Int64:
		return INT64
	default:
		return 0
	}
}

// Validate checks if the parameter specification is complete and valid
func (p *ParamSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if p.Direction == DirectionScalar {
		if p.DataType == 0 && p.HostBinding == nil {
			return fmt.Errorf("scalar %s needs type or binding", p.Name)
		}
		return nil
	}
	if p.Size == 0 {
		return fmt.Errorf("array %s needs size", p.Name)
	}
	if p.DataType == 0 {
		return fmt.Errorf("array %s needs type", p.Name)
	}
	if p.Direction == DirectionTemp {
		if p.HostBinding != nil {
			return fmt.Errorf("temp array %s cannot have host binding", p.Name)
		}
		if p.DoCopyTo || p.DoCopyBack {
			return fmt.Errorf("temp array %s cannot have copy operations", p.Name)
		}
	}
	return nil
}

// IsConst returns whether this parameter should be const in the kernel signature
func (p *ParamSpec) IsConst() bool {
	switch p.Direction {
	case DirectionInput, DirectionScalar:
		return true
	default:
		return false
	}
}

// NeedsCopyTo returns whether this parameter needs host→device copy
func (p *ParamSpec) NeedsCopyTo() bool {
	return p.DoCopyTo && p.HostBinding != nil
}

// NeedsCopyBack returns whether this parameter needs device→host copy
func (p *ParamSpec) NeedsCopyBack() bool {
	return p.DoCopyBack && p.HostBinding != nil
}

// Rank is the number of extents passed after the array pointer. Plain
// slices count as rank 1.
func (p *ParamSpec) Rank() int {
	if p.Direction == DirectionScalar {
		return 0
	}
	if len(p.Extents) == 0 {
		return 1
	}
	return len(p.Extents)
}

// ExtentValues returns the extents passed to the kernel
func (p *ParamSpec) ExtentValues() []int {
	if len(p.Extents) == 0 {
		return []int{int(p.Size)}
	}
	return p.Extents
}
