package builder

import (
	"fmt"
	"github.com/notargets/nhsolve/field"
)

// DataType is the element type of a device array or scalar
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// Size returns the element size in bytes
func (dt DataType) Size() int64 {
	switch dt {
	case Float32, INT32:
		return 4
	default:
		return 8
	}
}

// CName returns the OKL type name
func (dt DataType) CName() string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case INT32:
		return "int"
	case INT64:
		return "long"
	default:
		return "void"
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case INT32:
		return "INT32"
	case INT64:
		return "INT64"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// FromField maps a field element type to the device type
func FromField(dt field.DataType) DataType {
	if dt == field.Int32 {
		return INT32
	}
	return Float64
}
