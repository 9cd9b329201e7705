package bvh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/wavefront/types"
)

type NodeKind uint8

// Node reference kinds.
const (
	NoneRef NodeKind = iota
	InternalRef
	PrimitiveRef
	ObjectRef
)

func (k NodeKind) String() string {
	switch k {
	case NoneRef:
		return "none"
	case InternalRef:
		return "internal"
	case PrimitiveRef:
		return "primitive"
	case ObjectRef:
		return "object"
	}
	panic("bvh: unsupported node kind")
}

const (
	// Wire encoding for an absent child.
	NoneEncoding int32 = math.MinInt32

	// Size in bytes of an encoded node.
	NodeSize = 64
)

// A reference to a BVH child: an internal node or a leaf pointing at a
// primitive (mesh BVH) or an object (top-level BVH).
type NodeRef struct {
	Kind  NodeKind
	Index uint32
}

// Reference an internal node.
func Internal(index uint32) NodeRef {
	return NodeRef{Kind: InternalRef, Index: index}
}

// Reference a primitive leaf.
func PrimitiveLeaf(index uint32) NodeRef {
	return NodeRef{Kind: PrimitiveRef, Index: index}
}

// Reference an object leaf.
func Object(index uint32) NodeRef {
	return NodeRef{Kind: ObjectRef, Index: index}
}

// Reference nothing.
func None() NodeRef {
	return NodeRef{}
}

func (r NodeRef) IsNone() bool {
	return r.Kind == NoneRef
}

func (r NodeRef) IsLeaf() bool {
	return r.Kind == PrimitiveRef || r.Kind == ObjectRef
}

// Shift an internal or leaf reference by off.
func (r NodeRef) Rebase(off uint32) NodeRef {
	if r.Kind == NoneRef {
		return r
	}
	r.Index += off
	return r
}

// Encode reference using the signed wire representation: internal nodes are
// stored as their index and leaves as -(index+1).
func (r NodeRef) Encode() int32 {
	switch r.Kind {
	case InternalRef:
		return int32(r.Index)
	case PrimitiveRef, ObjectRef:
		return -int32(r.Index) - 1
	}
	return NoneEncoding
}

// Decode a signed wire reference. Leaves decode to leafKind.
func DecodeRef(v int32, leafKind NodeKind) NodeRef {
	switch {
	case v == NoneEncoding:
		return None()
	case v < 0:
		return NodeRef{Kind: leafKind, Index: uint32(-(v + 1))}
	}
	return Internal(uint32(v))
}

func (r NodeRef) String() string {
	if r.Kind == NoneRef {
		return "none"
	}
	return fmt.Sprintf("%s(%d)", r.Kind, r.Index)
}

// A binary BVH node holding the bounds of both of its children.
type Node struct {
	LeftMin, LeftMax   types.Vec3
	RightMin, RightMax types.Vec3
	Left, Right        NodeRef
}

func (n *Node) LeftBounds() types.AABB {
	return types.AABB{Min: n.LeftMin, Max: n.LeftMax}
}

func (n *Node) RightBounds() types.AABB {
	return types.AABB{Min: n.RightMin, Max: n.RightMax}
}

// Get the union of both child boxes.
func (n *Node) Bounds() types.AABB {
	return n.LeftBounds().Union(n.RightBounds())
}

func (n *Node) setChildBounds(right bool, bounds types.AABB) {
	if right {
		n.RightMin, n.RightMax = bounds.Min, bounds.Max
		return
	}
	n.LeftMin, n.LeftMax = bounds.Min, bounds.Max
}

// Append the 64-byte little-endian encoding of the node to dst. The layout is
// left min, left child, left max, pad, right min, right child, right max, pad.
func (n *Node) AppendEncoded(dst []byte) []byte {
	dst = appendVec3(dst, n.LeftMin)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(n.Left.Encode()))
	dst = appendVec3(dst, n.LeftMax)
	dst = binary.LittleEndian.AppendUint32(dst, 0)
	dst = appendVec3(dst, n.RightMin)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(n.Right.Encode()))
	dst = appendVec3(dst, n.RightMax)
	dst = binary.LittleEndian.AppendUint32(dst, 0)
	return dst
}

// Decode a node produced by AppendEncoded.
func DecodeNode(src []byte, leafKind NodeKind) (Node, error) {
	if len(src) < NodeSize {
		return Node{}, fmt.Errorf("bvh: node encoding requires %d bytes; got %d", NodeSize, len(src))
	}
	return Node{
		LeftMin:  readVec3(src[0:]),
		Left:     DecodeRef(int32(binary.LittleEndian.Uint32(src[12:])), leafKind),
		LeftMax:  readVec3(src[16:]),
		RightMin: readVec3(src[32:]),
		Right:    DecodeRef(int32(binary.LittleEndian.Uint32(src[44:])), leafKind),
		RightMax: readVec3(src[48:]),
	}, nil
}

// Encode a list of nodes.
func EncodeNodes(nodes []Node) []byte {
	out := make([]byte, 0, len(nodes)*NodeSize)
	for i := range nodes {
		out = nodes[i].AppendEncoded(out)
	}
	return out
}

func appendVec3(dst []byte, v types.Vec3) []byte {
	for _, c := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(c))
	}
	return dst
}

func readVec3(src []byte) types.Vec3 {
	return types.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(src[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[8:])),
	}
}
