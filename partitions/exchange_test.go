package partitions

import (
	"errors"
	"testing"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/field"
	"github.com/notargets/nhsolve/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exchangeFor(t *testing.T, mesh *grid.Mesh, n int, strategy PartitionStrategy) (*PartitionLayout, *HaloExchange) {
	t.Helper()
	pb := &PartitionBuilder{Mesh: mesh, NumPartitions: n, Strategy: strategy}
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)
	hx, err := NewHaloExchange(layout, mesh)
	require.NoError(t, err)
	return layout, hx
}

func TestHaloExchange_Unpartitioned(t *testing.T) {
	_, hx := exchangeFor(t, torus(t), 1, BlockPartition)
	require.NoError(t, hx.Verify())
	cells, edges := hx.Volume()
	assert.Zero(t, cells)
	assert.Zero(t, edges)
}

func TestHaloExchange_Partitioned(t *testing.T) {
	mesh := torus(t)
	for _, strategy := range []PartitionStrategy{BlockPartition, RoundRobin, GraphPartition, SpaceFillingCurve} {
		t.Run(strategy.String(), func(t *testing.T) {
			layout, hx := exchangeFor(t, mesh, 3, strategy)
			require.NoError(t, hx.Verify())

			cells, _ := hx.Volume()
			total := 0
			for p := 0; p < 3; p++ {
				halo := HaloCells(layout, mesh, p)
				total += len(halo)
				received := 0
				for q := 0; q < 3; q++ {
					assert.Equal(t, hx.GetPickIndices(q, p), hx.GetPlaceIndices(p, q))
					received += len(hx.GetPlaceIndices(p, q))
				}
				assert.Equal(t, len(halo), received)
			}
			assert.Equal(t, total, cells)
		})
	}
}

func TestHaloExchange_OutOfRange(t *testing.T) {
	_, hx := exchangeFor(t, torus(t), 2, BlockPartition)
	assert.Nil(t, hx.GetPickIndices(-1, 0))
	assert.Nil(t, hx.GetPlaceIndices(0, 2))
}

func TestHaloExchange_ExchangeCellsAndEdges(t *testing.T) {
	mesh := torus(t)
	const n, nlev = 4, 3
	layout, hx := exchangeFor(t, mesh, n, GraphPartition)

	cells := make([]*field.F64, n)
	edges := make([]*field.F64, n)
	for p := 0; p < n; p++ {
		cells[p] = field.NewF64(mesh.NCells, nlev)
		cells[p].Fill(-1)
		for _, c := range layout.Partitions[p].Elements {
			for k := 0; k < nlev; k++ {
				cells[p].Set(float64(p), c, k)
			}
		}
		edges[p] = field.NewF64(mesh.NEdges)
		edges[p].Fill(-1)
		for e, owner := range hx.EdgeOwner {
			if owner == p {
				edges[p].Data[e] = float64(p)
			}
		}
	}
	require.NoError(t, hx.ExchangeCells(cells))
	require.NoError(t, hx.ExchangeEdges(edges))

	for p := 0; p < n; p++ {
		halo := map[int]bool{}
		for _, c := range HaloCells(layout, mesh, p) {
			halo[c] = true
		}
		for c := 0; c < mesh.NCells; c++ {
			owner := layout.GetPartition(c)
			want := -1.0
			if owner == p || halo[c] {
				want = float64(owner)
			}
			assert.Equal(t, want, cells[p].At(c, nlev-1), "rank %d cell %d", p, c)
		}
		// Every edge of an owned cell now carries its owner's value
		for _, c := range layout.Partitions[p].Elements {
			for _, e := range mesh.C2E[c] {
				assert.Equal(t, float64(hx.EdgeOwner[e]), edges[p].Data[e], "rank %d edge %d", p, e)
			}
		}
	}
}

func TestHaloExchange_ExchangeState(t *testing.T) {
	mesh := torus(t)
	layout, hx := exchangeFor(t, mesh, 2, BlockPartition)
	shape := dycore.Shape{NCells: mesh.NCells, NEdges: mesh.NEdges, NVerts: mesh.NVerts, NLevels: 4}

	states := make([]dycore.PrognosticState, 2)
	for p := range states {
		r := &dycore.RunArgs{}
		r.Allocate(shape)
		for _, f := range []*field.F64{r.Now.Rho, r.Now.Exner, r.Now.W, r.Now.ThetaV, r.Now.Vn} {
			f.Fill(float64(p + 1))
		}
		states[p] = r.Now
	}
	require.NoError(t, hx.ExchangeState(states))

	for _, c := range HaloCells(layout, mesh, 0) {
		assert.Equal(t, 2.0, states[0].W.At(c, 0))
		assert.Equal(t, 2.0, states[0].ThetaV.At(c, 3))
	}
	for _, c := range layout.Partitions[0].Elements {
		assert.Equal(t, 1.0, states[0].Rho.At(c, 0))
	}

	err := hx.ExchangeState(states[:1])
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestHaloExchange_Gather(t *testing.T) {
	mesh := torus(t)
	layout, hx := exchangeFor(t, mesh, 3, GraphPartition)
	shape := dycore.Shape{NCells: mesh.NCells, NEdges: mesh.NEdges, NVerts: mesh.NVerts, NLevels: 2}

	states := make([]dycore.PrognosticState, 3)
	for p := range states {
		r := &dycore.RunArgs{}
		r.Allocate(shape)
		for _, f := range []*field.F64{r.Now.Rho, r.Now.Exner, r.Now.W, r.Now.ThetaV, r.Now.Vn} {
			f.Fill(float64(p + 1))
		}
		states[p] = r.Now
	}
	require.NoError(t, hx.Gather(states, 0))

	// Root now holds each owner's value everywhere; the others are untouched
	for c := 0; c < mesh.NCells; c++ {
		want := float64(layout.GetPartition(c) + 1)
		for _, f := range []*field.F64{states[0].Rho, states[0].Exner, states[0].W, states[0].ThetaV} {
			assert.Equal(t, []float64{want, want}, f.Row(c)[:2], "cell %d", c)
		}
		assert.Equal(t, 2.0, states[1].Rho.At(c, 1))
	}
	for e, owner := range hx.EdgeOwner {
		assert.Equal(t, float64(owner+1), states[0].Vn.At(e, 1), "edge %d", e)
	}

	assert.True(t, errors.Is(hx.Gather(states, 3), ErrInvalidLayout))
	assert.True(t, errors.Is(hx.Gather(states[:2], 0), ErrInvalidLayout))
}

func TestHaloExchange_MeshMismatch(t *testing.T) {
	layout, _ := exchangeFor(t, torus(t), 2, BlockPartition)
	other, err := grid.NewTorus(3, 3, 5000)
	require.NoError(t, err)
	_, err = NewHaloExchange(layout, other)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}
