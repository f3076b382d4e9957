package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTorusCounts(t *testing.T) {
	m, err := NewTorus(4, 3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 24, m.NCells)
	assert.Equal(t, 36, m.NEdges)
	assert.Equal(t, 12, m.NVerts)
	assert.InDelta(t, math.Sqrt(3)/4*1e6, m.CellArea, 1e-6)

	_, err = NewTorus(2, 5, 1000)
	assert.Error(t, err)
	_, err = NewTorus(3, 3, 0)
	assert.Error(t, err)
}

func TestTorusConnectivityIsConsistent(t *testing.T) {
	m, err := NewTorus(5, 4, 1)
	require.NoError(t, err)
	for c, edges := range m.C2E {
		for j, e := range edges {
			assert.Contains(t, m.E2C[e], c)
			nb := m.C2E2C[c][j]
			assert.NotEqual(t, c, nb)
			assert.Contains(t, m.C2E2C[nb], c)
		}
	}
	for v := 0; v < m.NVerts; v++ {
		seen := map[int]bool{}
		for _, c := range m.V2C[v] {
			seen[c] = true
			assert.Contains(t, m.C2V[c], v)
		}
		assert.Len(t, seen, 6)
		for _, e := range m.V2E[v] {
			assert.Contains(t, m.E2V[e], v)
		}
	}
}

func TestTorusNormalsCloseEachCell(t *testing.T) {
	m, err := NewTorus(4, 4, 2)
	require.NoError(t, err)
	for e := 0; e < m.NEdges; e++ {
		assert.InDelta(t, 1, math.Hypot(m.NormalX[e], m.NormalY[e]), 1e-12)
	}
	for c, edges := range m.C2E {
		var sx, sy float64
		for _, e := range edges {
			o := m.Orientation(c, e)
			sx += o * m.NormalX[e]
			sy += o * m.NormalY[e]
			dx, dy := m.wrap(m.EdgeX[e]-m.CellX[c], m.EdgeY[e]-m.CellY[c])
			assert.Greater(t, o*(m.NormalX[e]*dx+m.NormalY[e]*dy), 0.0, "cell %d edge %d", c, e)
			assert.InDelta(t, m.DualEdgeLength/2, math.Hypot(dx, dy), 1e-9)
		}
		assert.InDelta(t, 0, sx, 1e-12)
		assert.InDelta(t, 0, sy, 1e-12)
	}
}

func TestSingleCell(t *testing.T) {
	m := SingleCell(100)
	assert.Equal(t, 1, m.NCells)
	assert.Equal(t, 1, m.NEdges)
	assert.Equal(t, 1, m.NVerts)
	assert.Equal(t, 1.0, m.Orientation(0, 0))
}
