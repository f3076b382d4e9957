package dycore

import "fmt"

// Dim is a symbolic extent resolved against a Shape
type Dim int

const (
	Cell      Dim = iota // horizontal cells
	Edge                 // horizontal edges
	Vertex               // horizontal vertices
	Level                // full levels
	HalfLevel            // half levels (interfaces), Level+1
	E2C                  // cells adjacent to an edge
	E2C2E                // edges of the two cells adjacent to an edge, excluding itself
	E2C2EO               // E2C2E plus the edge itself
	ECV                  // vertices of the diamond around an edge
	C2E                  // edges of a cell
	C2E2CO               // cell plus its three neighbours
	V2C                  // cells around a vertex
	V2E                  // edges around a vertex
	Wgtfacq              // extrapolation stencil at the surface
)

var dimNames = [...]string{"Cell", "Edge", "Vertex", "K", "KHalf", "E2C", "E2C2E",
	"E2C2EO", "ECV", "C2E", "C2E2CO", "V2C", "V2E", "Wgtfacq"}

func (d Dim) String() string {
	if int(d) < len(dimNames) {
		return dimNames[d]
	}
	return fmt.Sprintf("Dim(%d)", int(d))
}

// Shape fixes the horizontal and vertical sizes of one solver instance
type Shape struct {
	NCells  int
	NEdges  int
	NVerts  int
	NLevels int
}

// Extent resolves d against the shape
func (d Dim) Extent(s Shape) int {
	switch d {
	case Cell:
		return s.NCells
	case Edge:
		return s.NEdges
	case Vertex:
		return s.NVerts
	case Level:
		return s.NLevels
	case HalfLevel:
		return s.NLevels + 1
	case E2C:
		return 2
	case E2C2E, ECV, C2E2CO:
		return 4
	case E2C2EO:
		return 5
	case C2E, Wgtfacq:
		return 3
	case V2C, V2E:
		return 6
	default:
		return 0
	}
}

// Horizontal reports whether d is indexed by a mesh entity
func (d Dim) Horizontal() bool { return d == Cell || d == Edge || d == Vertex }

// Validate checks that a shape describes a non-degenerate instance
func (s Shape) Validate() error {
	if s.NCells < 1 || s.NEdges < 1 || s.NVerts < 1 {
		return fmt.Errorf("shape %+v: every horizontal size must be at least 1", s)
	}
	if s.NLevels < 1 {
		return fmt.Errorf("shape %+v: at least one level required", s)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("cells=%d edges=%d verts=%d levels=%d", s.NCells, s.NEdges, s.NVerts, s.NLevels)
}
