package scene

import (
	"encoding/binary"
	"math"

	"github.com/achilleasa/wavefront/types"
)

// Size in bytes of an encoded object descriptor.
const ObjectSize = 128

// Position, XYZ euler rotation (radians) and scale of an instance.
type Transform struct {
	Position types.Vec3
	Rotation types.Vec3
	Scale    types.Vec3
}

// Build the local to world matrix: translate * rotate * scale.
func (t Transform) LocalToWorld() types.Mat4 {
	return types.Translate4(t.Position).
		Mul4(types.RotateEuler4(t.Rotation)).
		Mul4(types.Scale4(t.Scale))
}

// Build the world to local matrix as the analytic inverse of LocalToWorld.
func (t Transform) WorldToLocal() types.Mat4 {
	invScale := types.Vec3{1 / t.Scale[0], 1 / t.Scale[1], 1 / t.Scale[2]}
	return types.Scale4(invScale).
		Mul4(types.InvRotateEuler4(t.Rotation)).
		Mul4(types.Translate4(t.Position.Mul(-1)))
}

// A mesh instance.
type Object struct {
	Mesh      MeshID
	Transform Transform
	Material  uint32

	// Derived by Scene.Build.
	LocalToWorld types.Mat4
	WorldToLocal types.Mat4
	Bounds       types.AABB

	// Offset of the instanced mesh in the packed node and triangle buffers.
	BVHOffset uint32
}

// Append the 128-byte little-endian descriptor: the local to world matrix
// followed by the world to local matrix, both column-major. The bottom row
// of the first two local to world columns is always zero for affine
// transforms so it carries the bit-cast BVH offset and material index.
func (o *Object) AppendEncoded(dst []byte) []byte {
	for i, v := range o.LocalToWorld {
		bits := math.Float32bits(v)
		switch i {
		case 3:
			bits = o.BVHOffset
		case 7:
			bits = o.Material
		}
		dst = binary.LittleEndian.AppendUint32(dst, bits)
	}
	for _, v := range o.WorldToLocal {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// Decode the BVH offset and material index from an encoded descriptor.
func DecodeObjectHeader(src []byte) (bvhOffset, material uint32) {
	return binary.LittleEndian.Uint32(src[3*4:]), binary.LittleEndian.Uint32(src[7*4:])
}
