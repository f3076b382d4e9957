package field

import (
	"fmt"
	"strings"
	"unsafe"
)

// ArgKind classifies a flattened boundary argument
type ArgKind int

const (
	ArgPointer ArgKind = iota // address of the first element of a Field
	ArgExtent                 // one dimension of the preceding Field
	ArgScalar                 // configuration or per-call value
)

func (k ArgKind) String() string {
	switch k {
	case ArgPointer:
		return "pointer"
	case ArgExtent:
		return "extent"
	default:
		return "scalar"
	}
}

// Argument is one positional argument of a boundary call.
// Extents carry an int32 Value, scalars an int32 or float64 Value.
type Argument struct {
	Name  string
	Kind  ArgKind
	Type  DataType
	Ptr   unsafe.Pointer
	Value any
}

// ExtentName returns the conventional name of extent dim of a field
func ExtentName(name string, dim int) string {
	return fmt.Sprintf("%s_size_%d", name, dim)
}

// Flatten expands a Field into its pointer followed by one extent per rank.
// The storage is not copied and the extents are not checked against it.
func Flatten[T Element](name string, f *Field[T]) []Argument {
	args := make([]Argument, 0, 1+f.Rank())
	args = append(args, Argument{
		Name: name,
		Kind: ArgPointer,
		Type: TypeOf[T](),
		Ptr:  f.Pointer(),
	})
	for d, e := range f.Extents {
		args = append(args, Extent(name, d, e))
	}
	return args
}

// Extent builds the extent argument for dimension dim of field name
func Extent(name string, dim, extent int) Argument {
	return Argument{
		Name:  ExtentName(name, dim),
		Kind:  ArgExtent,
		Type:  Int32,
		Value: int32(extent),
	}
}

// Float builds a double precision scalar argument
func Float(name string, v float64) Argument {
	return Argument{Name: name, Kind: ArgScalar, Type: Float64, Value: v}
}

// Int builds an integer scalar argument
func Int(name string, v int) Argument {
	return Argument{Name: name, Kind: ArgScalar, Type: Int32, Value: int32(v)}
}

// Bool builds an integer scalar argument carrying 0 or 1
func Bool(name string, v bool) Argument {
	if v {
		return Int(name, 1)
	}
	return Int(name, 0)
}

// Float64Value returns the scalar or extent value as float64
func (a Argument) Float64Value() float64 {
	switch v := a.Value.(type) {
	case float64:
		return v
	case int32:
		return float64(v)
	default:
		return 0
	}
}

// Int32Value returns the scalar or extent value as int32
func (a Argument) Int32Value() int32 {
	switch v := a.Value.(type) {
	case int32:
		return v
	case float64:
		return int32(v)
	default:
		return 0
	}
}

// Group is one Field as recovered from a flattened argument list
type Group struct {
	Name    string
	Type    DataType
	Extents []int
}

// Rank returns the number of extents that followed the pointer
func (g Group) Rank() int { return len(g.Extents) }

// Layout regroups a flattened argument list into its Fields and scalars and
// checks the ordering rules: each pointer is followed by its own extents,
// and no Field appears after the first scalar.
func Layout(args []Argument) ([]Group, []Argument, error) {
	var groups []Group
	var scalars []Argument
	for i, a := range args {
		switch a.Kind {
		case ArgPointer:
			if len(scalars) > 0 {
				return nil, nil, fmt.Errorf("argument %d (%s): field after scalar %s",
					i, a.Name, scalars[0].Name)
			}
			groups = append(groups, Group{Name: a.Name, Type: a.Type})
		case ArgExtent:
			if len(groups) == 0 || len(scalars) > 0 {
				return nil, nil, fmt.Errorf("argument %d (%s): extent without field", i, a.Name)
			}
			g := &groups[len(groups)-1]
			if want := ExtentName(g.Name, len(g.Extents)); a.Name != want {
				return nil, nil, fmt.Errorf("argument %d: expected %s, got %s", i, want, a.Name)
			}
			g.Extents = append(g.Extents, int(a.Int32Value()))
		case ArgScalar:
			scalars = append(scalars, a)
		}
	}
	return groups, scalars, nil
}

// Prototype renders the C declaration of a boundary function taking args.
// Pointers are typed by element, extents and integer scalars are int.
func Prototype(function string, args []Argument) string {
	params := make([]string, 0, len(args))
	for _, a := range args {
		switch a.Kind {
		case ArgPointer:
			params = append(params, fmt.Sprintf("%s *%s", a.Type.CName(), a.Name))
		case ArgExtent:
			params = append(params, fmt.Sprintf("int %s", a.Name))
		default:
			params = append(params, fmt.Sprintf("%s %s", a.Type.CName(), a.Name))
		}
	}
	return fmt.Sprintf("extern int %s(\n    %s);", function, strings.Join(params, ",\n    "))
}
