package dycore

import (
	"fmt"
	"github.com/notargets/nhsolve/field"
)

// Decl is the boundary declaration of one Field: its name, element type and
// symbolic dimensions. The rank is len(Dims) and never varies.
type Decl struct {
	Name string
	Type field.DataType
	Dims []Dim
}

// Rank returns the number of extents passed after the pointer
func (d Decl) Rank() int { return len(d.Dims) }

// Extents resolves the declaration against a shape
func (d Decl) Extents(s Shape) []int {
	ext := make([]int, len(d.Dims))
	for i, dim := range d.Dims {
		ext[i] = dim.Extent(s)
	}
	return ext
}

// Binding ties a Decl to the struct field that holds it
type Binding struct {
	Decl
	f64 **field.F64
	i32 **field.I32
}

func bindF64(ref **field.F64, name string, dims ...Dim) Binding {
	return Binding{Decl: Decl{Name: name, Type: field.Float64, Dims: dims}, f64: ref}
}

func bindI32(ref **field.I32, name string, dims ...Dim) Binding {
	return Binding{Decl: Decl{Name: name, Type: field.Int32, Dims: dims}, i32: ref}
}

// Present reports whether a Field has been attached
func (b Binding) Present() bool {
	if b.f64 != nil {
		return *b.f64 != nil
	}
	return *b.i32 != nil
}

// Float returns the bound float field, or nil
func (b Binding) Float() *field.F64 {
	if b.f64 == nil {
		return nil
	}
	return *b.f64
}

// Int returns the bound integer field, or nil
func (b Binding) Int() *field.I32 {
	if b.i32 == nil {
		return nil
	}
	return *b.i32
}

// FieldExtents returns the extents declared by the attached Field
func (b Binding) FieldExtents() []int {
	if f := b.Float(); f != nil {
		return f.Extents
	}
	if f := b.Int(); f != nil {
		return f.Extents
	}
	return nil
}

// Allocate attaches a zeroed Field sized for shape
func (b Binding) Allocate(s Shape) {
	ext := b.Extents(s)
	if b.f64 != nil {
		*b.f64 = field.NewF64(ext...)
		return
	}
	*b.i32 = field.NewI32(ext...)
}

// Arguments flattens the bound Field. A missing Field still yields the
// declared number of extents, all zero, behind a nil pointer.
func (b Binding) Arguments() []field.Argument {
	switch {
	case b.Float() != nil:
		return field.Flatten(b.Name, b.Float())
	case b.Int() != nil:
		return field.Flatten(b.Name, b.Int())
	}
	args := []field.Argument{{Name: b.Name, Kind: field.ArgPointer, Type: b.Type}}
	for d := range b.Dims {
		args = append(args, field.Extent(b.Name, d, 0))
	}
	return args
}

// Check validates the attached Field against the declaration and shape
func (b Binding) Check(s Shape) error {
	if !b.Present() {
		return fmt.Errorf("not bound")
	}
	ext := b.FieldExtents()
	if len(ext) != b.Rank() {
		return fmt.Errorf("rank %d, declared rank %d", len(ext), b.Rank())
	}
	var err error
	if f := b.Float(); f != nil {
		err = f.Check()
	} else {
		err = b.Int().Check()
	}
	if err != nil {
		return err
	}
	want := b.Extents(s)
	for i := range want {
		if ext[i] != want[i] {
			return fmt.Errorf("extent %d (%s) is %d, expected %d", i, b.Dims[i], ext[i], want[i])
		}
	}
	return nil
}

// Decls strips the field references from a binding list
func Decls(bindings []Binding) []Decl {
	decls := make([]Decl, len(bindings))
	for i, b := range bindings {
		decls[i] = b.Decl
	}
	return decls
}

func flatten(bindings []Binding) []field.Argument {
	var args []field.Argument
	for _, b := range bindings {
		args = append(args, b.Arguments()...)
	}
	return args
}

func allocate(bindings []Binding, s Shape) {
	for _, b := range bindings {
		b.Allocate(s)
	}
}
