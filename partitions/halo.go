package partitions

import (
	"fmt"

	"github.com/notargets/nhsolve/grid"
)

// HaloMasks derives the ownership masks of partition rank over the global
// mesh. c_owner_mask marks owned cells, bdy_halo_c the first row of halo
// cells sharing an edge with an owned cell, and mask_prog_halo_c the halo
// cells whose prognostics the rank updates itself, which is that same first
// row. Every other cell is left to its owner.
func HaloMasks(layout *PartitionLayout, mesh *grid.Mesh, rank int) (*grid.Masks, error) {
	if rank < 0 || rank >= layout.NumPartitions {
		return nil, fmt.Errorf("%w: rank %d outside [0, %d)", ErrInvalidLayout, rank, layout.NumPartitions)
	}
	if layout.TotalElements != mesh.NCells {
		return nil, fmt.Errorf("%w: layout covers %d cells, mesh has %d",
			ErrInvalidLayout, layout.TotalElements, mesh.NCells)
	}
	masks := &grid.Masks{
		COwner:   make([]int32, mesh.NCells),
		BdyHalo:  make([]int32, mesh.NCells),
		ProgHalo: make([]int32, mesh.NCells),
	}
	for _, c := range layout.Partitions[rank].Elements {
		masks.COwner[c] = 1
	}
	for _, c := range HaloCells(layout, mesh, rank) {
		masks.BdyHalo[c] = 1
		masks.ProgHalo[c] = 1
	}
	return masks, nil
}

// HaloCells lists, in ascending order, the cells not owned by rank that share
// an edge with one of its cells
func HaloCells(layout *PartitionLayout, mesh *grid.Mesh, rank int) []int {
	halo := make([]bool, mesh.NCells)
	for _, c := range layout.Partitions[rank].Elements {
		for _, nb := range mesh.C2E2C[c] {
			if layout.GetPartition(nb) != rank {
				halo[nb] = true
			}
		}
	}
	var cells []int
	for c, in := range halo {
		if in {
			cells = append(cells, c)
		}
	}
	return cells
}
