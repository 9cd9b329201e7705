package types

// A triangle defined by its three vertices.
type Triangle struct {
	V0, V1, V2 Vec3
}

// Return the triangle bounding box.
func (t Triangle) Bounds() AABB {
	return EmptyAABB().Extend(t.V0).Extend(t.V1).Extend(t.V2)
}

// Return the triangle centroid.
func (t Triangle) Centroid() Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Return the unnormalized geometric normal (e1 x e2).
func (t Triangle) Normal() Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0))
}
