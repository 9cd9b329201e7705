package bvh

import (
	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/types"
)

const (
	// Quantization bits per axis.
	MortonBits = 10

	mortonScale = 1 << MortonBits
)

// Spread the low 10 bits of v so there are two zero bits between each one.
func expandBits(v uint32) uint32 {
	v = (v | (v << 16)) & 0xFF0000FF
	v = (v | (v << 8)) & 0x0F00F00F
	v = (v | (v << 4)) & 0xC30C30C3
	v = (v | (v << 2)) & 0x49249249
	return v
}

// Quantize a normalized coordinate to MortonBits.
func quantize(v float32) uint32 {
	q := v * mortonScale
	if !(q > 0) {
		return 0
	}
	if q > mortonScale-1 {
		return mortonScale - 1
	}
	return uint32(q)
}

// Calculate the 30-bit Morton code of point p normalized into bounds. Axes
// where bounds has zero extent map to the middle of the range.
func MortonCode(p types.Vec3, bounds types.AABB) uint32 {
	extent := bounds.Extent()
	var q [3]uint32
	for axis := 0; axis < 3; axis++ {
		norm := float32(0.5)
		if extent[axis] > 0 {
			norm = (p[axis] - bounds.Min[axis]) / extent[axis]
		}
		q[axis] = quantize(norm)
	}
	return expandBits(q[0]) | expandBits(q[1])<<1 | expandBits(q[2])<<2
}

// Morton kernel: codes[i] = MortonCode(prims[i].Centroid); perm[i] = i.
//
// Args: prims *Buffer[Primitive], codes *Buffer[uint32], perm *Buffer[uint32], bounds types.AABB
func mortonKernel(group *device.WorkGroup, args []any) error {
	prims, err := device.Arg[*device.Buffer[Primitive]](args, 0)
	if err != nil {
		return err
	}
	codes, err := device.Arg[*device.Buffer[uint32]](args, 1)
	if err != nil {
		return err
	}
	perm, err := device.Arg[*device.Buffer[uint32]](args, 2)
	if err != nil {
		return err
	}
	bounds, err := device.Arg[types.AABB](args, 3)
	if err != nil {
		return err
	}

	primData, codeData, permData := prims.Data(), codes.Data(), perm.Data()
	return group.ForEach(func(i, _ int) error {
		codeData[i] = MortonCode(primData[i].Centroid, bounds)
		permData[i] = uint32(i)
		return nil
	})
}
