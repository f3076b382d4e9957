package native

import (
	"unsafe"

	"github.com/notargets/nhsolve/field"
)

// packed splits a flattened argument list by C type, preserving order within
// each kind. packed.c expands the three arrays back into positional calls.
type packed struct {
	ptrs    []unsafe.Pointer
	ints    []int32
	doubles []float64
}

func pack(args []field.Argument) packed {
	var p packed
	for _, a := range args {
		switch {
		case a.Kind == field.ArgPointer:
			p.ptrs = append(p.ptrs, a.Ptr)
		case a.Kind == field.ArgExtent || a.Type == field.Int32:
			p.ints = append(p.ints, a.Int32Value())
		default:
			p.doubles = append(p.doubles, a.Float64Value())
		}
	}
	return p
}
