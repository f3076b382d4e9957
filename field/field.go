package field

import (
	"fmt"
	"unsafe"
)

// Field is a view over contiguous row-major storage with a fixed rank.
// Extents are ordered outermost first; the last extent varies fastest.
// A Field never owns more than the slice it wraps: views share storage.
type Field[T Element] struct {
	Data    []T
	Extents []int
}

// F64 is a double precision field
type F64 = Field[float64]

// I32 is an integer field, used for masks and index tables
type I32 = Field[int32]

// New allocates a zeroed field with the given extents
func New[T Element](extents ...int) *Field[T] {
	ext := append([]int(nil), extents...)
	return &Field[T]{
		Data:    make([]T, product(ext)),
		Extents: ext,
	}
}

// Wrap builds a view over existing storage. Nothing is copied or checked.
func Wrap[T Element](data []T, extents ...int) *Field[T] {
	return &Field[T]{
		Data:    data,
		Extents: append([]int(nil), extents...),
	}
}

// NewF64 allocates a float64 field
func NewF64(extents ...int) *F64 { return New[float64](extents...) }

// NewI32 allocates an int32 field
func NewI32(extents ...int) *I32 { return New[int32](extents...) }

// Type returns the boundary element type
func (f *Field[T]) Type() DataType { return TypeOf[T]() }

// Rank returns the number of declared dimensions
func (f *Field[T]) Rank() int { return len(f.Extents) }

// Len returns the number of elements implied by the extents
func (f *Field[T]) Len() int { return product(f.Extents) }

// Size returns the extent of dimension dim
func (f *Field[T]) Size(dim int) int { return f.Extents[dim] }

// Offset returns the flat row-major index of a multi-index
func (f *Field[T]) Offset(idx ...int) int {
	off := 0
	for d, i := range idx {
		off = off*f.Extents[d] + i
	}
	return off
}

// At returns the element at a multi-index
func (f *Field[T]) At(idx ...int) T { return f.Data[f.Offset(idx...)] }

// Set assigns the element at a multi-index
func (f *Field[T]) Set(v T, idx ...int) { f.Data[f.Offset(idx...)] = v }

// Row returns the contiguous slab addressed by the outermost index
func (f *Field[T]) Row(i int) []T {
	stride := 1
	for _, e := range f.Extents[1:] {
		stride *= e
	}
	return f.Data[i*stride : (i+1)*stride]
}

// Fill sets every element to v
func (f *Field[T]) Fill(v T) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// Clone returns a deep copy
func (f *Field[T]) Clone() *Field[T] {
	c := &Field[T]{
		Data:    make([]T, len(f.Data)),
		Extents: append([]int(nil), f.Extents...),
	}
	copy(c.Data, f.Data)
	return c
}

// SameShape reports whether both fields declare identical extents
func (f *Field[T]) SameShape(o *Field[T]) bool {
	if len(f.Extents) != len(o.Extents) {
		return false
	}
	for i := range f.Extents {
		if f.Extents[i] != o.Extents[i] {
			return false
		}
	}
	return true
}

// CopyFrom copies the contents of src, which must have the same shape
func (f *Field[T]) CopyFrom(src *Field[T]) error {
	if !f.SameShape(src) {
		return fmt.Errorf("shape mismatch: %v vs %v", f.Extents, src.Extents)
	}
	copy(f.Data, src.Data)
	return nil
}

// Pointer returns the address of the first element, or nil for empty storage
func (f *Field[T]) Pointer() unsafe.Pointer {
	if len(f.Data) == 0 {
		return nil
	}
	return unsafe.Pointer(&f.Data[0])
}

// Check reports whether the storage length matches the declared extents.
// The boundary never calls it; validating layers above it do.
func (f *Field[T]) Check() error {
	for d, e := range f.Extents {
		if e < 0 {
			return fmt.Errorf("negative extent %d in dimension %d", e, d)
		}
	}
	if n := f.Len(); n != len(f.Data) {
		return fmt.Errorf("storage holds %d elements, extents %v require %d",
			len(f.Data), f.Extents, n)
	}
	return nil
}

func product(ext []int) int {
	n := 1
	for _, e := range ext {
		n *= e
	}
	return n
}
