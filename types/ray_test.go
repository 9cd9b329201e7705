package types

import (
	"math"
	"math/rand"
	"testing"
)

func randomVec3(rng *rand.Rand, scale float32) Vec3 {
	return Vec3{
		(rng.Float32()*2 - 1) * scale,
		(rng.Float32()*2 - 1) * scale,
		(rng.Float32()*2 - 1) * scale,
	}
}

func TestIntersectTriangleThroughCentroid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		tri := Triangle{randomVec3(rng, 10), randomVec3(rng, 10), randomVec3(rng, 10)}
		n := tri.Normal()
		if n.Len() < 1e-2 {
			continue
		}
		n = n.Normalize()

		// Place the origin away from the triangle plane and aim at the centroid
		c := tri.Centroid()
		offset := randomVec3(rng, 1).Add(n.Mul(2 + rng.Float32()*5))
		if offset.Normalize().Dot(n) < 0.2 {
			offset = n.Mul(3)
		}
		origin := c.Add(offset)
		ray := Ray{Origin: origin, Dir: c.Sub(origin).Normalize()}

		dist, hit := IntersectTriangle(ray, tri)
		if !hit {
			t.Fatalf("[iter %d] expected ray through centroid to hit triangle", i)
		}
		if dist <= 0 || math.IsInf(float64(dist), 0) || math.IsNaN(float64(dist)) {
			t.Fatalf("[iter %d] expected positive finite distance; got %f", i, dist)
		}
	}
}

func TestIntersectTriangleMiss(t *testing.T) {
	tri := Triangle{XYZ(-1, -1, 0), XYZ(1, -1, 0), XYZ(0, 1, 0)}

	specs := []struct {
		ray Ray
	}{
		// Passes beside the triangle
		{Ray{Origin: XYZ(5, 5, -5), Dir: XYZ(0, 0, 1)}},
		// Points away from the triangle
		{Ray{Origin: XYZ(0, 0, -5), Dir: XYZ(0, 0, -1)}},
		// Parallel to the triangle plane
		{Ray{Origin: XYZ(-5, 0, 0), Dir: XYZ(1, 0, 0)}},
	}

	for index, spec := range specs {
		if _, hit := IntersectTriangle(spec.ray, tri); hit {
			t.Errorf("[spec %d] expected ray to miss the triangle", index)
		}
	}
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: XYZ(-1, -1, -1), Max: XYZ(1, 1, 1)}

	specs := []struct {
		ray     Ray
		tMax    float32
		expHit  bool
		expTMin float32
	}{
		{Ray{Origin: XYZ(0, 0, -5), Dir: XYZ(0, 0, 1)}, 100, true, 4},
		{Ray{Origin: XYZ(0, 0, 0), Dir: XYZ(0, 1, 0)}, 100, true, 0},
		{Ray{Origin: XYZ(0, 0, -5), Dir: XYZ(0, 0, 1)}, 3, false, 0},
		{Ray{Origin: XYZ(3, 0, -5), Dir: XYZ(0, 0, 1)}, 100, false, 0},
		{Ray{Origin: XYZ(0, 0, -5), Dir: XYZ(0, 0, -1)}, 100, false, 0},
	}

	for index, spec := range specs {
		tMin, hit := IntersectAABB(box, spec.ray.Origin, spec.ray.InvDir(), spec.tMax)
		if hit != spec.expHit {
			t.Errorf("[spec %d] expected hit to be %t; got %t", index, spec.expHit, hit)
			continue
		}
		if hit && tMin != spec.expTMin {
			t.Errorf("[spec %d] expected entry distance %f; got %f", index, spec.expTMin, tMin)
		}
	}
}
