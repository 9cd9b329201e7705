package tracer

import (
	"math"

	"github.com/achilleasa/wavefront/types"
)

// Map two uniform samples to a point on the unit disk.
func uniformSampleDisk(r2 types.Vec2) types.Vec2 {
	r := float32(math.Sqrt(float64(max(r2[0], 0))))
	theta := 2 * math.Pi * float64(r2[1])
	return types.XY(r*float32(math.Cos(theta)), r*float32(math.Sin(theta)))
}

// Sample a direction on the +Z hemisphere with a cosine-weighted density.
func cosineSampleHemisphere(r2 types.Vec2) types.Vec3 {
	d := uniformSampleDisk(r2)
	z := float32(math.Sqrt(float64(max(0, 1-d[0]*d[0]-d[1]*d[1]))))
	return d.Vec3(z)
}

// Get a vector orthogonal to v.
func ortho(v types.Vec3) types.Vec3 {
	if abs32(v[0]) > abs32(v[1]) {
		return types.XYZ(-v[1], v[0], 0)
	}
	return types.XYZ(0, -v[2], v[1])
}

// Express w, given in the frame (x, y, z), in world space.
func toWorld(x, y, z, w types.Vec3) types.Vec3 {
	return x.Mul(w[0]).Add(y.Mul(w[1])).Add(z.Mul(w[2]))
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
