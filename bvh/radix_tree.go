package bvh

import (
	"math"
	"math/bits"

	"github.com/achilleasa/wavefront/device"
)

// Parent index of the root node.
const noParent = math.MaxUint32

// Length of the common prefix of sorted keys i and j. Identical keys are
// disambiguated by their position so every split is well defined. Out of
// range positions return -1.
func commonPrefix(codes []uint32, i, j int) int {
	if j < 0 || j >= len(codes) {
		return -1
	}
	if codes[i] != codes[j] {
		return bits.LeadingZeros32(codes[i] ^ codes[j])
	}
	return 32 + bits.LeadingZeros32(uint32(i)^uint32(j))
}

// Find the key range [first, last] covered by internal node i and the split
// position gamma between its children.
func determineRange(codes []uint32, i int) (first, last, gamma int) {
	// Direction of the range
	d := 1
	if commonPrefix(codes, i, i+1) < commonPrefix(codes, i, i-1) {
		d = -1
	}

	// Upper bound for the range length
	deltaMin := commonPrefix(codes, i, i-d)
	lMax := 2
	for commonPrefix(codes, i, i+lMax*d) > deltaMin {
		lMax *= 2
	}

	// Binary search for the other end
	l := 0
	for t := lMax / 2; t >= 1; t /= 2 {
		if commonPrefix(codes, i, i+(l+t)*d) > deltaMin {
			l += t
		}
	}
	j := i + l*d

	// Binary search for the split position
	deltaNode := commonPrefix(codes, i, j)
	s := 0
	for t := l; t > 1; {
		t = (t + 1) / 2
		if commonPrefix(codes, i, i+(s+t)*d) > deltaNode {
			s += t
		}
	}
	gamma = i + s*d + min(d, 0)

	return min(i, j), max(i, j), gamma
}

// Radix tree kernel: one invocation per internal node. Children and parent
// links are written; bounds are filled in by the refit pass.
//
// Args: codes *Buffer[uint32], nodes *Buffer[Node], leafParents, nodeParents *Buffer[uint32], leafKind NodeKind
func radixTreeKernel(group *device.WorkGroup, args []any) error {
	codes, err := device.Arg[*device.Buffer[uint32]](args, 0)
	if err != nil {
		return err
	}
	nodes, err := device.Arg[*device.Buffer[Node]](args, 1)
	if err != nil {
		return err
	}
	leafParents, err := device.Arg[*device.Buffer[uint32]](args, 2)
	if err != nil {
		return err
	}
	nodeParents, err := device.Arg[*device.Buffer[uint32]](args, 3)
	if err != nil {
		return err
	}
	leafKind, err := device.Arg[NodeKind](args, 4)
	if err != nil {
		return err
	}

	codeData, nodeData := codes.Data(), nodes.Data()
	leafParentData, nodeParentData := leafParents.Data(), nodeParents.Data()
	return group.ForEach(func(i, _ int) error {
		first, last, gamma := determineRange(codeData, i)

		node := &nodeData[i]
		if first == gamma {
			node.Left = NodeRef{Kind: leafKind, Index: uint32(gamma)}
			leafParentData[gamma] = uint32(i)
		} else {
			node.Left = Internal(uint32(gamma))
			nodeParentData[gamma] = uint32(i)
		}
		if last == gamma+1 {
			node.Right = NodeRef{Kind: leafKind, Index: uint32(gamma + 1)}
			leafParentData[gamma+1] = uint32(i)
		} else {
			node.Right = Internal(uint32(gamma + 1))
			nodeParentData[gamma+1] = uint32(i)
		}
		if i == 0 {
			nodeParentData[0] = noParent
		}
		return nil
	})
}
