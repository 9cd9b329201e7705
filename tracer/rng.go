package tracer

import (
	"math"

	"github.com/achilleasa/wavefront/types"
)

const (
	hashMultiplier uint32 = 1103515245
	lcgMultiplier  uint32 = 48271
	rngMask        uint32 = 0x7fffffff
)

// Integer hash of a 2D key.
func baseHash(x, y uint32) uint32 {
	px := hashMultiplier * ((x >> 1) ^ y)
	py := hashMultiplier * ((y >> 1) ^ x)
	h := hashMultiplier * (px ^ (py >> 3))
	return h ^ (h >> 16)
}

// Generate two uniform samples in [0, 1] from a float seed. Callers advance
// the seed after each draw.
func rand2(seed float32) types.Vec2 {
	n := baseHash(math.Float32bits(seed+1), math.Float32bits(seed+2))
	return types.XY(
		float32(n&rngMask)/float32(rngMask),
		float32((n*lcgMultiplier)&rngMask)/float32(rngMask),
	)
}

// Derive the initial RNG seed of a path.
func initialSeed(path uint32, offset float32) float32 {
	return float32(baseHash(path, path))/float32(math.MaxUint32) + offset
}
