package bvh

import (
	"fmt"
	"time"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/types"
	"github.com/gogpu/gputypes"
)

// Kernel names.
const (
	kernelMorton         = "bvh_morton"
	kernelRadixHistogram = "bvh_radix_histogram"
	kernelRadixScan      = "bvh_radix_scan"
	kernelRadixScatter   = "bvh_radix_scatter"
	kernelRadixTree      = "bvh_radix_tree"
	kernelRefit          = "bvh_refit"
)

// The BVH construction kernels.
var Program = device.Program{
	kernelMorton:         mortonKernel,
	kernelRadixHistogram: radixHistogramKernel,
	kernelRadixScan:      radixScanKernel,
	kernelRadixScatter:   radixScatterKernel,
	kernelRadixTree:      radixTreeKernel,
	kernelRefit:          refitKernel,
}

// An item partitioned by the builder.
type Primitive struct {
	Bounds   types.AABB
	Centroid types.Vec3
}

// Build statistics.
type Stats struct {
	Primitives int
	Nodes      int

	MortonTime time.Duration
	SortTime   time.Duration
	TreeTime   time.Duration
	RefitTime  time.Duration
	TotalTime  time.Duration
}

// A binary radix BVH. Node 0 is the root; leaves reference primitives by
// their position in Morton order.
type Tree struct {
	Nodes []Node

	// Permutation[sorted] = original primitive index.
	Permutation []uint32

	// Union of all primitive bounds.
	Bounds types.AABB

	// The kind of references stored in leaves.
	LeafKind NodeKind

	Stats Stats
}

type builder struct {
	dev    *device.Device
	logger log.Logger

	// Radix sort digit histograms
	hist *device.Buffer[uint32]

	stats *Stats
}

// Build a BVH over prims. Primitive centroids are normalized into bounds
// for Morton coding. Leaves are tagged with leafKind which must be either
// PrimitiveRef or ObjectRef.
//
// The resulting tree has len(prims)-1 internal nodes. A single primitive
// produces a root-only tree whose right child is empty and no primitives
// produce a tree without nodes.
func Build(dev *device.Device, prims []Primitive, bounds types.AABB, leafKind NodeKind) (*Tree, error) {
	if leafKind != PrimitiveRef && leafKind != ObjectRef {
		return nil, fmt.Errorf("bvh: unsupported leaf kind %s", leafKind)
	}
	if err := dev.Init(Program); err != nil {
		return nil, err
	}

	n := len(prims)
	tree := &Tree{
		Bounds:   types.EmptyAABB(),
		LeafKind: leafKind,
		Stats:    Stats{Primitives: n},
	}

	switch n {
	case 0:
		return tree, nil
	case 1:
		empty := types.EmptyAABB()
		tree.Nodes = []Node{{
			LeftMin:  prims[0].Bounds.Min,
			LeftMax:  prims[0].Bounds.Max,
			Left:     NodeRef{Kind: leafKind},
			RightMin: empty.Min,
			RightMax: empty.Max,
		}}
		tree.Permutation = []uint32{0}
		tree.Bounds = prims[0].Bounds
		tree.Stats.Nodes = 1
		return tree, nil
	}

	b := &builder{
		dev:    dev,
		logger: log.New("bvh"),
		hist:   device.NewBuffer[uint32](dev, "bvh_histogram", gputypes.BufferUsageStorage),
		stats:  &tree.Stats,
	}

	start := time.Now()

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	primBuf := device.NewBuffer[Primitive](dev, "bvh_primitives", usage)
	nodes := device.NewBuffer[Node](dev, "bvh_nodes", usage)
	u32 := make([]*device.Buffer[uint32], 0, 7)
	newU32 := func(name string, count int) (*device.Buffer[uint32], error) {
		buf := device.NewBuffer[uint32](dev, name, usage)
		u32 = append(u32, buf)
		return buf, buf.Allocate(count)
	}
	defer func() {
		primBuf.Release()
		nodes.Release()
		for _, buf := range u32 {
			buf.Release()
		}
	}()

	if err := primBuf.AllocateAndWriteData(prims); err != nil {
		return nil, err
	}
	if err := nodes.Allocate(n - 1); err != nil {
		return nil, err
	}
	codes, err := newU32("bvh_morton_codes", n)
	if err != nil {
		return nil, err
	}
	perm, err := newU32("bvh_permutation", n)
	if err != nil {
		return nil, err
	}
	tmpKeys, err := newU32("bvh_morton_codes_tmp", n)
	if err != nil {
		return nil, err
	}
	tmpPerm, err := newU32("bvh_permutation_tmp", n)
	if err != nil {
		return nil, err
	}
	leafParents, err := newU32("bvh_leaf_parents", n)
	if err != nil {
		return nil, err
	}
	nodeParents, err := newU32("bvh_node_parents", n-1)
	if err != nil {
		return nil, err
	}
	visits, err := newU32("bvh_visits", n-1)
	if err != nil {
		return nil, err
	}

	tick := time.Now()
	if err = b.exec(kernelMorton, n, 0, primBuf, codes, perm, bounds); err != nil {
		return nil, err
	}
	b.stats.MortonTime = time.Since(tick)

	tick = time.Now()
	if err = b.radixSort(codes, perm, tmpKeys, tmpPerm); err != nil {
		return nil, err
	}
	b.stats.SortTime = time.Since(tick)

	tick = time.Now()
	if err = b.exec(kernelRadixTree, n-1, 0, codes, nodes, leafParents, nodeParents, leafKind); err != nil {
		return nil, err
	}
	b.stats.TreeTime = time.Since(tick)

	tick = time.Now()
	if err = b.exec(kernelRefit, n, 0, primBuf, perm, nodes, leafParents, nodeParents, visits, leafKind); err != nil {
		return nil, err
	}
	b.stats.RefitTime = time.Since(tick)

	// Read back results
	tree.Nodes = make([]Node, n-1)
	if err = nodes.ReadData(0, 0, 0, tree.Nodes); err != nil {
		return nil, err
	}
	tree.Permutation = make([]uint32, n)
	if err = perm.ReadData(0, 0, 0, tree.Permutation); err != nil {
		return nil, err
	}
	tree.Bounds = tree.Nodes[0].Bounds()
	tree.Stats.Nodes = len(tree.Nodes)
	tree.Stats.TotalTime = time.Since(start)

	b.logger.Debugf(
		"BVH build time: %d ms (morton %d us, sort %d us, tree %d us, refit %d us), primitives: %d, nodes: %d",
		tree.Stats.TotalTime.Milliseconds(),
		tree.Stats.MortonTime.Microseconds(),
		tree.Stats.SortTime.Microseconds(),
		tree.Stats.TreeTime.Microseconds(),
		tree.Stats.RefitTime.Microseconds(),
		n, len(tree.Nodes),
	)

	return tree, nil
}

// Load kernel, bind args and dispatch it over globalSize invocations.
func (b *builder) exec(name string, globalSize, localSize int, args ...any) error {
	kernel, err := b.dev.Kernel(name)
	if err != nil {
		return err
	}
	defer kernel.Release()

	if err = kernel.SetArgs(args...); err != nil {
		return err
	}
	_, err = kernel.Exec1D(0, globalSize, localSize)
	return err
}
