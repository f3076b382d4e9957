// Package grid builds synthetic meshes, vertical coordinates and reference
// states, and fills the solver argument sets from them.
package grid

import (
	"fmt"
	"math"
)

// EarthRadius maps planar coordinates to latitude and longitude
const EarthRadius = 6.371229e6

// Mesh is a planar triangular mesh with ICON style connectivity. Cells are
// triangles, vertices have six neighbours.
type Mesh struct {
	NCells, NEdges, NVerts int
	EdgeLength             float64
	CellArea               float64
	DualEdgeLength         float64

	C2E   [][3]int // edges of a cell, counter-clockwise
	C2V   [][3]int
	C2E2C [][3]int // neighbour across each cell edge
	E2C   [][2]int // normal points from E2C[e][0] to E2C[e][1]
	E2V   [][2]int
	V2C   [][6]int
	V2E   [][6]int

	CellX, CellY []float64
	EdgeX, EdgeY []float64
	NormalX      []float64 // unit normal of each edge
	NormalY      []float64
	Lx, Ly       float64 // periodic lengths, zero for a single cell
	Shear        float64 // x offset of the periodic image one Ly above
}

// NewTorus builds a doubly periodic mesh from nx*ny rhombi, each split into
// two equilateral triangles.
func NewTorus(nx, ny int, edgeLength float64) (*Mesh, error) {
	if nx < 3 || ny < 3 {
		return nil, fmt.Errorf("torus needs at least 3 rhombi in each direction, got %dx%d", nx, ny)
	}
	if !(edgeLength > 0) {
		return nil, fmt.Errorf("edge length must be positive, got %g", edgeLength)
	}
	L := edgeLength
	h := L * math.Sqrt(3) / 2
	n := nx * ny
	m := &Mesh{
		NCells: 2 * n, NEdges: 3 * n, NVerts: n,
		EdgeLength:     L,
		CellArea:       math.Sqrt(3) / 4 * L * L,
		DualEdgeLength: L / math.Sqrt(3),
		Lx:             float64(nx) * L,
		Ly:             float64(ny) * h,
		Shear:          float64(ny) * L / 2,
	}
	vid := func(i, j int) int { return ((j+ny)%ny)*nx + (i+nx)%nx }
	eid := func(i, j, t int) int { return 3*vid(i, j) + t }

	vx := make([]float64, n)
	vy := make([]float64, n)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			vx[vid(i, j)] = float64(i)*L + float64(j)*L/2
			vy[vid(i, j)] = float64(j) * h
		}
	}

	m.E2V = make([][2]int, m.NEdges)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.E2V[eid(i, j, 0)] = [2]int{vid(i, j), vid(i+1, j)}
			m.E2V[eid(i, j, 1)] = [2]int{vid(i, j), vid(i, j+1)}
			m.E2V[eid(i, j, 2)] = [2]int{vid(i+1, j), vid(i, j+1)}
		}
	}

	m.C2E = make([][3]int, m.NCells)
	m.C2V = make([][3]int, m.NCells)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			up := 2 * vid(i, j)
			m.C2V[up] = [3]int{vid(i, j), vid(i+1, j), vid(i, j+1)}
			m.C2E[up] = [3]int{eid(i, j, 0), eid(i, j, 2), eid(i, j, 1)}
			m.C2V[up+1] = [3]int{vid(i+1, j), vid(i+1, j+1), vid(i, j+1)}
			m.C2E[up+1] = [3]int{eid(i+1, j, 1), eid(i, j+1, 0), eid(i, j, 2)}
		}
	}

	m.E2C = make([][2]int, m.NEdges)
	count := make([]int, m.NEdges)
	for c, edges := range m.C2E {
		for _, e := range edges {
			if count[e] < 2 {
				m.E2C[e][count[e]] = c
			}
			count[e]++
		}
	}
	m.V2C = make([][6]int, m.NVerts)
	vc := make([]int, m.NVerts)
	for c, verts := range m.C2V {
		for _, v := range verts {
			if vc[v] < 6 {
				m.V2C[v][vc[v]] = c
			}
			vc[v]++
		}
	}
	m.V2E = make([][6]int, m.NVerts)
	ve := make([]int, m.NVerts)
	for e, verts := range m.E2V {
		for _, v := range verts {
			if ve[v] < 6 {
				m.V2E[v][ve[v]] = e
			}
			ve[v]++
		}
	}
	for e := range count {
		if count[e] != 2 {
			return nil, fmt.Errorf("edge %d borders %d cells", e, count[e])
		}
	}

	m.C2E2C = make([][3]int, m.NCells)
	for c, edges := range m.C2E {
		for j, e := range edges {
			m.C2E2C[c][j] = m.E2C[e][0]
			if m.E2C[e][0] == c {
				m.C2E2C[c][j] = m.E2C[e][1]
			}
		}
	}

	m.CellX = make([]float64, m.NCells)
	m.CellY = make([]float64, m.NCells)
	for c, verts := range m.C2V {
		// unwrap the triangle around its first vertex before averaging
		x0, y0 := vx[verts[0]], vy[verts[0]]
		sx, sy := x0, y0
		for _, v := range verts[1:] {
			dx, dy := m.wrap(vx[v]-x0, vy[v]-y0)
			sx += x0 + dx
			sy += y0 + dy
		}
		m.CellX[c], m.CellY[c] = sx/3, sy/3
	}

	m.EdgeX = make([]float64, m.NEdges)
	m.EdgeY = make([]float64, m.NEdges)
	m.NormalX = make([]float64, m.NEdges)
	m.NormalY = make([]float64, m.NEdges)
	for e, verts := range m.E2V {
		x0, y0 := vx[verts[0]], vy[verts[0]]
		tx, ty := m.wrap(vx[verts[1]]-x0, vy[verts[1]]-y0)
		m.EdgeX[e], m.EdgeY[e] = x0+tx/2, y0+ty/2
		nxv, nyv := ty/L, -tx/L
		// orient the normal from the first to the second adjacent cell
		dx, dy := m.wrap(m.EdgeX[e]-m.CellX[m.E2C[e][0]], m.EdgeY[e]-m.CellY[m.E2C[e][0]])
		if nxv*dx+nyv*dy < 0 {
			nxv, nyv = -nxv, -nyv
		}
		m.NormalX[e], m.NormalY[e] = nxv, nyv
	}
	return m, nil
}

// SingleCell is the degenerate mesh of one cell, one edge and one vertex.
// Every neighbour index refers back to the same entity.
func SingleCell(edgeLength float64) *Mesh {
	return &Mesh{
		NCells: 1, NEdges: 1, NVerts: 1,
		EdgeLength:     edgeLength,
		CellArea:       math.Sqrt(3) / 4 * edgeLength * edgeLength,
		DualEdgeLength: edgeLength / math.Sqrt(3),
		C2E:            [][3]int{{0, 0, 0}},
		C2V:            [][3]int{{0, 0, 0}},
		C2E2C:          [][3]int{{0, 0, 0}},
		E2C:            [][2]int{{0, 0}},
		E2V:            [][2]int{{0, 0}},
		V2C:            [][6]int{{}},
		V2E:            [][6]int{{}},
		CellX:          []float64{0}, CellY: []float64{0},
		EdgeX: []float64{0}, EdgeY: []float64{0},
		NormalX: []float64{1}, NormalY: []float64{0},
	}
}

// wrap returns the shortest periodic image of a displacement
func (m *Mesh) wrap(dx, dy float64) (float64, float64) {
	if m.Ly > 0 {
		k := math.Round(dy / m.Ly)
		dx -= k * m.Shear
		dy -= k * m.Ly
	}
	if m.Lx > 0 {
		dx -= m.Lx * math.Round(dx/m.Lx)
	}
	return dx, dy
}

// Orientation is +1 when the normal of edge e points out of cell c
func (m *Mesh) Orientation(c, e int) float64 {
	if m.E2C[e][0] == c {
		return 1
	}
	return -1
}

// MeanCellArea is the average primal cell area
func (m *Mesh) MeanCellArea() float64 { return m.CellArea }
