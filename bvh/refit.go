package bvh

import (
	"fmt"
	"sync/atomic"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/types"
)

// Refit kernel: one invocation per leaf. Each leaf writes its box into its
// parent and bumps the parent visit counter. The first child to arrive stops;
// the second one unions both child boxes and continues towards the root, so
// every internal node is processed exactly once and only after both of its
// children are final.
//
// Args: prims *Buffer[Primitive], perm *Buffer[uint32], nodes *Buffer[Node],
// leafParents, nodeParents, visits *Buffer[uint32], leafKind NodeKind
func refitKernel(group *device.WorkGroup, args []any) error {
	prims, err := device.Arg[*device.Buffer[Primitive]](args, 0)
	if err != nil {
		return err
	}
	perm, err := device.Arg[*device.Buffer[uint32]](args, 1)
	if err != nil {
		return err
	}
	nodes, err := device.Arg[*device.Buffer[Node]](args, 2)
	if err != nil {
		return err
	}
	var links [3]*device.Buffer[uint32]
	for i := range links {
		if links[i], err = device.Arg[*device.Buffer[uint32]](args, 3+i); err != nil {
			return err
		}
	}
	leafKind, err := device.Arg[NodeKind](args, 6)
	if err != nil {
		return err
	}

	primData, permData, nodeData := prims.Data(), perm.Data(), nodes.Data()
	leafParents, nodeParents, visits := links[0].Data(), links[1].Data(), links[2].Data()

	return group.ForEach(func(leaf, _ int) error {
		child := NodeRef{Kind: leafKind, Index: uint32(leaf)}
		box := primData[permData[leaf]].Bounds
		parent := leafParents[leaf]

		for depth := 0; parent != noParent; depth++ {
			if int(parent) >= len(nodeData) || depth > len(nodeData) {
				return fmt.Errorf("bvh: refit of leaf %d reached invalid parent %d", leaf, parent)
			}
			node := &nodeData[parent]
			node.setChildBounds(node.Right == child, box)

			// First arrival; the sibling will finish this node.
			if atomic.AddUint32(&visits[parent], 1) == 1 {
				return nil
			}

			box = node.Bounds()
			child = Internal(parent)
			parent = nodeParents[parent]
		}
		return nil
	})
}

// Verify that every internal node box tightly wraps the union of its
// children and that the root box equals bounds.
func (t *Tree) Validate(leafBounds func(NodeRef) types.AABB) error {
	if len(t.Nodes) == 0 {
		return nil
	}
	var visit func(ref NodeRef) (types.AABB, error)
	visit = func(ref NodeRef) (types.AABB, error) {
		switch {
		case ref.IsNone():
			return types.EmptyAABB(), nil
		case ref.IsLeaf():
			return leafBounds(ref), nil
		}
		if int(ref.Index) >= len(t.Nodes) {
			return types.AABB{}, fmt.Errorf("bvh: node reference %s out of range", ref)
		}
		node := &t.Nodes[ref.Index]
		left, err := visit(node.Left)
		if err != nil {
			return left, err
		}
		right, err := visit(node.Right)
		if err != nil {
			return right, err
		}
		if node.LeftBounds() != left || node.RightBounds() != right {
			return types.AABB{}, fmt.Errorf("bvh: node %d child boxes do not match its subtrees", ref.Index)
		}
		return left.Union(right), nil
	}

	root, err := visit(Internal(0))
	if err != nil {
		return err
	}
	if root != t.Bounds {
		return fmt.Errorf("bvh: root box %v does not match tree bounds %v", root, t.Bounds)
	}
	return nil
}
