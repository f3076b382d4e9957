package field

import "fmt"

// DataType identifies the element type of a Field at the boundary
type DataType int

const (
	Float64 DataType = iota + 1
	Int32
)

// Size returns the size in bytes of one element
func (dt DataType) Size() int64 {
	switch dt {
	case Int32:
		return 4
	default:
		return 8
	}
}

// CName returns the C type name used in boundary prototypes
func (dt DataType) CName() string {
	switch dt {
	case Int32:
		return "int"
	default:
		return "double"
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// Element is the set of storage types a Field may carry across the boundary.
// Discrete fields (masks, index offsets) are int32, everything else float64.
type Element interface {
	float64 | int32
}

// TypeOf returns the boundary DataType for an element type
func TypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	default:
		return Float64
	}
}
