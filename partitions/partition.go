package partitions

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is wrapped by every layout consistency failure
var ErrInvalidLayout = errors.New("invalid partition layout")

// Partition is a set of cells integrated together on one rank
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Cell membership
	Elements    []int // Global cell indices in this partition
	NumElements int   // Actual number of owned cells
	MaxElements int   // Padded size for OCCA @inner loop uniformity
}

// PartitionLayout manages the complete mesh decomposition
type PartitionLayout struct {
	// All partitions in the mesh
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumElements) across all partitions for OCCA
	TotalElements int // Sum of all actual cells across partitions
	NumPartitions int // Total number of partitions

	// Cell to partition mapping
	EToP []int // Length TotalElements: cell k belongs to partition EToP[k]
}

// GetPartition returns the partition containing cell k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks that every cell is owned exactly once and that the
// sizing information agrees with the membership lists
func (pl *PartitionLayout) ValidateLayout() error {
	if pl.NumPartitions != len(pl.Partitions) {
		return fmt.Errorf("%w: NumPartitions %d != %d partitions",
			ErrInvalidLayout, pl.NumPartitions, len(pl.Partitions))
	}
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("%w: EToP has %d entries for %d cells",
			ErrInvalidLayout, len(pl.EToP), pl.TotalElements)
	}

	seen := make([]bool, pl.TotalElements)
	actualMax, total := 0, 0
	for i, p := range pl.Partitions {
		if p.ID != i {
			return fmt.Errorf("%w: partition at index %d has ID %d", ErrInvalidLayout, i, p.ID)
		}
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("%w: partition %d: NumElements %d != %d cells",
				ErrInvalidLayout, p.ID, p.NumElements, len(p.Elements))
		}
		if p.MaxElements != pl.KpartMax {
			return fmt.Errorf("%w: partition %d: MaxElements %d != KpartMax %d",
				ErrInvalidLayout, p.ID, p.MaxElements, pl.KpartMax)
		}
		for _, c := range p.Elements {
			if c < 0 || c >= pl.TotalElements {
				return fmt.Errorf("%w: partition %d holds cell %d outside the mesh", ErrInvalidLayout, p.ID, c)
			}
			if seen[c] {
				return fmt.Errorf("%w: cell %d owned twice", ErrInvalidLayout, c)
			}
			if pl.EToP[c] != p.ID {
				return fmt.Errorf("%w: cell %d maps to partition %d but is listed in %d",
					ErrInvalidLayout, c, pl.EToP[c], p.ID)
			}
			seen[c] = true
		}
		total += p.NumElements
		actualMax = max(actualMax, p.NumElements)
	}
	if total != pl.TotalElements {
		return fmt.Errorf("%w: partitions own %d of %d cells", ErrInvalidLayout, total, pl.TotalElements)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("%w: computed KpartMax %d != stored KpartMax %d",
			ErrInvalidLayout, actualMax, pl.KpartMax)
	}
	return nil
}
