package partitions

import (
	"fmt"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/grid"
)

// Every rank keeps full-mesh Fields, so pick and place indices are both
// global cell or edge numbers. A rank owns an edge when it owns the first
// cell of E2C.

// PickBuffer lists the entities a source rank sends to TargetPartition
type PickBuffer struct {
	Indices         []int
	TargetPartition int
}

// PlaceBuffer lists where a target rank stores what SourcePartition sent
type PlaceBuffer struct {
	Indices         []int
	SourcePartition int
}

// connector holds the pick and place lists for one entity kind
type connector struct {
	Pick  [][]PickBuffer  // [source][target]
	Place [][]PlaceBuffer // [target][source]
}

func newConnector(n int) connector {
	c := connector{
		Pick:  make([][]PickBuffer, n),
		Place: make([][]PlaceBuffer, n),
	}
	for p := 0; p < n; p++ {
		c.Pick[p] = make([]PickBuffer, n)
		c.Place[p] = make([]PlaceBuffer, n)
		for q := 0; q < n; q++ {
			c.Pick[p][q].TargetPartition = q
			c.Place[p][q].SourcePartition = q
		}
	}
	return c
}

func (c connector) add(source, target, idx int) {
	c.Pick[source][target].Indices = append(c.Pick[source][target].Indices, idx)
	c.Place[target][source].Indices = append(c.Place[target][source].Indices, idx)
}

func (c connector) volume() int {
	n := 0
	for _, row := range c.Pick {
		for _, b := range row {
			n += len(b.Indices)
		}
	}
	return n
}

// HaloExchange refreshes the halo of every rank from the owners
type HaloExchange struct {
	NumPartitions int
	Cells         connector
	Edges         connector
	EdgeOwner     []int

	layout *PartitionLayout
	mesh   *grid.Mesh
}

// NewHaloExchange builds the cell and edge lists of layout. Halo cells are
// those of HaloCells; halo edges are the edges of owned cells owned
// elsewhere.
func NewHaloExchange(layout *PartitionLayout, mesh *grid.Mesh) (*HaloExchange, error) {
	if layout.TotalElements != mesh.NCells {
		return nil, fmt.Errorf("%w: layout covers %d cells, mesh has %d",
			ErrInvalidLayout, layout.TotalElements, mesh.NCells)
	}
	n := layout.NumPartitions
	hx := &HaloExchange{
		NumPartitions: n,
		Cells:         newConnector(n),
		Edges:         newConnector(n),
		EdgeOwner:     make([]int, mesh.NEdges),
		layout:        layout,
		mesh:          mesh,
	}
	for e, cells := range mesh.E2C {
		hx.EdgeOwner[e] = layout.GetPartition(cells[0])
	}
	for p := 0; p < n; p++ {
		for _, c := range HaloCells(layout, mesh, p) {
			hx.Cells.add(layout.GetPartition(c), p, c)
		}
		for e, cells := range mesh.E2C {
			owner := hx.EdgeOwner[e]
			if owner != p && layout.GetPartition(cells[1]) == p {
				hx.Edges.add(owner, p, e)
			}
		}
	}
	return hx, nil
}

// GetPickIndices returns the cells source sends to target
func (hx *HaloExchange) GetPickIndices(source, target int) []int {
	if !hx.valid(source) || !hx.valid(target) {
		return nil
	}
	return hx.Cells.Pick[source][target].Indices
}

// GetPlaceIndices returns the cells target receives from source
func (hx *HaloExchange) GetPlaceIndices(target, source int) []int {
	if !hx.valid(source) || !hx.valid(target) {
		return nil
	}
	return hx.Cells.Place[target][source].Indices
}

func (hx *HaloExchange) valid(p int) bool { return p >= 0 && p < hx.NumPartitions }

// Volume returns the number of cells and edges moved by one exchange
func (hx *HaloExchange) Volume() (cells, edges int) {
	return hx.Cells.volume(), hx.Edges.volume()
}

// Verify checks that every pick comes from its owner, that picks and places
// pair up, and that each rank receives every halo entity exactly once
func (hx *HaloExchange) Verify() error {
	for _, kind := range []struct {
		name  string
		c     connector
		owner func(int) int
	}{
		{"cell", hx.Cells, hx.layout.GetPartition},
		{"edge", hx.Edges, func(e int) int { return hx.EdgeOwner[e] }},
	} {
		for p := 0; p < hx.NumPartitions; p++ {
			seen := map[int]bool{}
			for q := 0; q < hx.NumPartitions; q++ {
				pick := kind.c.Pick[q][p].Indices
				place := kind.c.Place[p][q].Indices
				if len(pick) != len(place) {
					return fmt.Errorf("%w: %s pick[%d][%d]=%d, place[%d][%d]=%d",
						ErrInvalidLayout, kind.name, q, p, len(pick), p, q, len(place))
				}
				for i, idx := range pick {
					if kind.owner(idx) != q {
						return fmt.Errorf("%w: %s %d picked from %d but owned by %d",
							ErrInvalidLayout, kind.name, idx, q, kind.owner(idx))
					}
					if q == p {
						return fmt.Errorf("%w: rank %d receives its own %s %d", ErrInvalidLayout, p, kind.name, idx)
					}
					if seen[place[i]] {
						return fmt.Errorf("%w: rank %d receives %s %d twice", ErrInvalidLayout, p, kind.name, place[i])
					}
					seen[place[i]] = true
				}
			}
		}
	}
	return nil
}

func exchange(c connector, fields []*field.F64) {
	for target := range fields {
		for source := range fields {
			pick := c.Pick[source][target].Indices
			place := c.Place[target][source].Indices
			for i, idx := range pick {
				copy(fields[target].Row(place[i]), fields[source].Row(idx))
			}
		}
	}
}

// ExchangeCells copies the halo cell rows of one Field per rank from their
// owners. All Fields must have the same shape with cells first.
func (hx *HaloExchange) ExchangeCells(fields []*field.F64) error {
	if err := hx.checkFields(fields, hx.mesh.NCells); err != nil {
		return err
	}
	exchange(hx.Cells, fields)
	return nil
}

// ExchangeEdges is ExchangeCells for edge Fields
func (hx *HaloExchange) ExchangeEdges(fields []*field.F64) error {
	if err := hx.checkFields(fields, hx.mesh.NEdges); err != nil {
		return err
	}
	exchange(hx.Edges, fields)
	return nil
}

func (hx *HaloExchange) checkFields(fields []*field.F64, n int) error {
	if len(fields) != hx.NumPartitions {
		return fmt.Errorf("%w: %d fields for %d ranks", ErrInvalidLayout, len(fields), hx.NumPartitions)
	}
	for p, f := range fields {
		if f == nil || f.Rank() < 1 || f.Size(0) != n || !f.SameShape(fields[0]) {
			return fmt.Errorf("%w: field of rank %d does not cover %d entities", ErrInvalidLayout, p, n)
		}
	}
	return nil
}

// stateFields splits one time level per rank into the per-variable Field
// lists the connectors move
func stateFields(states []dycore.PrognosticState) (cells [][]*field.F64, edges []*field.F64) {
	cells = make([][]*field.F64, 4)
	for i := range cells {
		cells[i] = make([]*field.F64, len(states))
	}
	edges = make([]*field.F64, len(states))
	for p, s := range states {
		cells[0][p], cells[1][p], cells[2][p], cells[3][p] = s.Rho, s.Exner, s.W, s.ThetaV
		edges[p] = s.Vn
	}
	return cells, edges
}

// ExchangeState refreshes the halo of every prognostic variable. states
// holds one time level per rank.
func (hx *HaloExchange) ExchangeState(states []dycore.PrognosticState) error {
	cells, edges := stateFields(states)
	for _, fields := range cells {
		if err := hx.ExchangeCells(fields); err != nil {
			return err
		}
	}
	return hx.ExchangeEdges(edges)
}

// Gather copies every cell and edge that root does not own from its owner
// into states[root], so root ends up holding the global state
func (hx *HaloExchange) Gather(states []dycore.PrognosticState, root int) error {
	if !hx.valid(root) {
		return fmt.Errorf("%w: gather root %d outside %d ranks", ErrInvalidLayout, root, hx.NumPartitions)
	}
	cells, edges := stateFields(states)
	for _, fields := range cells {
		if err := hx.checkFields(fields, hx.mesh.NCells); err != nil {
			return err
		}
	}
	if err := hx.checkFields(edges, hx.mesh.NEdges); err != nil {
		return err
	}
	for c := 0; c < hx.mesh.NCells; c++ {
		if q := hx.layout.GetPartition(c); q != root {
			for _, fields := range cells {
				copy(fields[root].Row(c), fields[q].Row(c))
			}
		}
	}
	for e, q := range hx.EdgeOwner {
		if q != root {
			copy(edges[root].Row(e), edges[q].Row(e))
		}
	}
	return nil
}
