package tracer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/wavefront/types"
)

// Size in bytes of the encoded uniform block.
const UniformsSize = 64

// Per-step parameters shared by all tracer kernels. The encoded layout is:
//
//	[0:8]   image width, height (int32)
//	[8:12]  first sample flag (int32)
//	[12:16] field of view in degrees (float32)
//	[16:28] camera position (vec3f)
//	[32:44] camera look-at point (vec3f)
//
// All remaining bytes are zero.
type Uniforms struct {
	Width, Height  int32
	FirstSample    bool
	FOV            float32
	CameraPosition types.Vec3
	CameraLookAt   types.Vec3
}

// Encode uniforms into their 64-byte little-endian representation.
func (u *Uniforms) Encode() []byte {
	buf := make([]byte, UniformsSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(u.Width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(u.Height))
	if u.FirstSample {
		binary.LittleEndian.PutUint32(buf[8:], 1)
	}
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(u.FOV))
	putVec3(buf[16:], u.CameraPosition)
	putVec3(buf[32:], u.CameraLookAt)
	return buf
}

// Decode a uniform block produced by Encode.
func DecodeUniforms(buf []byte) (Uniforms, error) {
	if len(buf) < UniformsSize {
		return Uniforms{}, fmt.Errorf("%w: expected %d bytes; got %d", ErrInvalidUniforms, UniformsSize, len(buf))
	}
	return Uniforms{
		Width:          int32(binary.LittleEndian.Uint32(buf[0:])),
		Height:         int32(binary.LittleEndian.Uint32(buf[4:])),
		FirstSample:    int32(binary.LittleEndian.Uint32(buf[8:])) > 0,
		FOV:            math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])),
		CameraPosition: getVec3(buf[16:]),
		CameraLookAt:   getVec3(buf[32:]),
	}, nil
}

func putVec3(dst []byte, v types.Vec3) {
	for i, c := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(c))
	}
}

func getVec3(src []byte) types.Vec3 {
	var v types.Vec3
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return v
}
