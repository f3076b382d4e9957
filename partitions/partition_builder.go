package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/nhsolve/grid"
)

// PartitionBuilder constructs partitions from mesh connectivity
type PartitionBuilder struct {
	Mesh *grid.Mesh

	// Partitioning parameters. NumPartitions wins over TargetPartitionSize
	// when both are set.
	NumPartitions       int
	TargetPartitionSize int
	Strategy            PartitionStrategy
}

// PartitionStrategy defines how cells are grouped
type PartitionStrategy int

const (
	// Simple strategies
	BlockPartition PartitionStrategy = iota // Consecutive cells
	RoundRobin                              // Distribute cyclically

	// Connectivity and geometry based strategies
	GraphPartition    // Breadth-first growth over cell neighbours
	SpaceFillingCurve // Morton ordering of cell centres
)

var strategyNames = map[PartitionStrategy]string{
	BlockPartition:    "block",
	RoundRobin:        "roundrobin",
	GraphPartition:    "graph",
	SpaceFillingCurve: "sfc",
}

func (s PartitionStrategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// ParseStrategy maps a strategy name to its value
func ParseStrategy(name string) (PartitionStrategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout from mesh connectivity
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil || pb.Mesh.NCells == 0 {
		return nil, fmt.Errorf("%w: no cells to partition", ErrInvalidLayout)
	}
	numPartitions := pb.calculateNumPartitions()
	if numPartitions > pb.Mesh.NCells {
		return nil, fmt.Errorf("%w: %d partitions for %d cells", ErrInvalidLayout, numPartitions, pb.Mesh.NCells)
	}

	eToP := pb.partitionElements(numPartitions)
	partitions := pb.createPartitions(eToP, numPartitions)
	kpartMax := calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxElements = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.Mesh.NCells,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, err
	}
	return layout, nil
}

// calculateNumPartitions determines the partition count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := pb.NumPartitions
	if numPartitions < 1 && pb.TargetPartitionSize > 0 {
		numPartitions = int(math.Ceil(float64(pb.Mesh.NCells) / float64(pb.TargetPartitionSize)))
	}
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionElements assigns cells to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	n := pb.Mesh.NCells
	switch pb.Strategy {
	case RoundRobin:
		eToP := make([]int, n)
		for i := range eToP {
			eToP[i] = i % numPartitions
		}
		return eToP
	case GraphPartition:
		return pb.growPartitions(numPartitions)
	case SpaceFillingCurve:
		return blockOver(pb.mortonOrder(), numPartitions)
	default:
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return blockOver(order, numPartitions)
	}
}

// blockOver cuts order into numPartitions contiguous, near equal blocks
func blockOver(order []int, numPartitions int) []int {
	eToP := make([]int, len(order))
	n := len(order)
	for i, c := range order {
		eToP[c] = i * numPartitions / n
	}
	return eToP
}

// growPartitions grows each partition breadth-first from the lowest
// unassigned cell until it reaches its share. Disconnected remainders seed
// the next partition.
func (pb *PartitionBuilder) growPartitions(numPartitions int) []int {
	m := pb.Mesh
	eToP := make([]int, m.NCells)
	for i := range eToP {
		eToP[i] = -1
	}
	next := 0
	assigned := 0
	for p := 0; p < numPartitions; p++ {
		quota := (p+1)*m.NCells/numPartitions - assigned
		queue := []int{}
		for quota > 0 {
			if len(queue) == 0 {
				for eToP[next] >= 0 {
					next++
				}
				eToP[next] = p
				queue = append(queue, next)
				quota--
				assigned++
				continue
			}
			c := queue[0]
			queue = queue[1:]
			for _, nb := range m.C2E2C[c] {
				if quota == 0 {
					break
				}
				if eToP[nb] < 0 {
					eToP[nb] = p
					queue = append(queue, nb)
					quota--
					assigned++
				}
			}
		}
	}
	return eToP
}

// mortonOrder sorts cells by the Z-order code of their centres
func (pb *PartitionBuilder) mortonOrder() []int {
	m := pb.Mesh
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for c := 0; c < m.NCells; c++ {
		minX, maxX = math.Min(minX, m.CellX[c]), math.Max(maxX, m.CellX[c])
		minY, maxY = math.Min(minY, m.CellY[c]), math.Max(maxY, m.CellY[c])
	}
	quantize := func(v, lo, hi float64) uint32 {
		if hi <= lo {
			return 0
		}
		return uint32((v - lo) / (hi - lo) * 65535)
	}
	codes := make([]uint64, m.NCells)
	order := make([]int, m.NCells)
	for c := range order {
		order[c] = c
		codes[c] = interleave(quantize(m.CellX[c], minX, maxX), quantize(m.CellY[c], minY, maxY))
	}
	sort.SliceStable(order, func(i, j int) bool { return codes[order[i]] < codes[order[j]] })
	return order
}

// interleave spreads the bits of x and y into a Morton code
func interleave(x, y uint32) uint64 {
	var code uint64
	for b := 0; b < 16; b++ {
		code |= uint64(x>>b&1) << (2 * b)
		code |= uint64(y>>b&1) << (2*b + 1)
	}
	return code
}

// createPartitions builds partition structures from cell assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}
	return partitions
}

// calculateKpartMax finds maximum cells across all partitions
func calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		kpartMax = max(kpartMax, p.NumElements)
	}
	return kpartMax
}

// PartitionStats are load balance and communication metrics of a layout
type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
	CutEdges      int     // Edges whose two cells live in different partitions
}

// PartitionStatistics computes load balance metrics. mesh may be nil, in
// which case CutEdges is not counted.
func (pl *PartitionLayout) PartitionStatistics(mesh *grid.Mesh) PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinElements:   math.MaxInt32,
		AvgElements:   float64(pl.TotalElements) / float64(pl.NumPartitions),
	}
	for _, p := range pl.Partitions {
		stats.MinElements = min(stats.MinElements, p.NumElements)
		stats.MaxElements = max(stats.MaxElements, p.NumElements)
	}
	stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	if mesh != nil {
		for _, cells := range mesh.E2C {
			if pl.GetPartition(cells[0]) != pl.GetPartition(cells[1]) {
				stats.CutEdges++
			}
		}
	}
	return stats
}
