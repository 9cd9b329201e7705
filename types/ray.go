package types

import "math"

// Minimum determinant magnitude for a ray/triangle test to register a hit.
const TriangleEpsilon = 1e-8

// A ray with an origin and a (not necessarily normalized) direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// Return the point at parametric distance t.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Transform ray into the space described by m. The direction is not
// renormalized so that hit distances are preserved across spaces.
func (r Ray) Transform(m Mat4) Ray {
	return Ray{
		Origin: m.TransformPoint(r.Origin),
		Dir:    m.TransformVector(r.Dir),
	}
}

// Return the reciprocal of the ray direction for slab tests.
func (r Ray) InvDir() Vec3 {
	return Vec3{1 / r.Dir[0], 1 / r.Dir[1], 1 / r.Dir[2]}
}

// Intersect the ray against a box using the slab method. It returns the entry
// distance (clamped to 0) and true if the box is hit within [0, tMax). Empty
// boxes are never hit.
func IntersectAABB(b AABB, origin, invDir Vec3, tMax float32) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tNear := float32(0)
	tFar := tMax
	for i := 0; i < 3; i++ {
		t0 := (b.Min[i] - origin[i]) * invDir[i]
		t1 := (b.Max[i] - origin[i]) * invDir[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// NaN slabs (0 * inf) are ignored
		if t0 == t0 && t0 > tNear {
			tNear = t0
		}
		if t1 == t1 && t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, false
		}
	}
	return tNear, tNear < tMax
}

// Intersect a ray with a triangle using the Moller-Trumbore algorithm. It
// returns the hit distance and true on a hit with t > 0. Rays nearly parallel
// to the triangle plane never hit.
func IntersectTriangle(r Ray, tri Triangle) (float32, bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if float32(math.Abs(float64(det))) < TriangleEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(tri.V0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	if t <= 0 || math.IsInf(float64(t), 0) {
		return 0, false
	}
	return t, true
}
