package types

import "github.com/go-gl/mathgl/mgl32"

// A column-major 4x4 matrix.
type Mat4 mgl32.Mat4

// Return the identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Build a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Build a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Build a rotation matrix from XYZ euler angles (radians). The rotation about
// X is applied first, followed by Y and Z.
func RotateEuler4(angles Vec3) Mat4 {
	rx := mgl32.HomogRotate3DX(angles[0])
	ry := mgl32.HomogRotate3DY(angles[1])
	rz := mgl32.HomogRotate3DZ(angles[2])
	return Mat4(rz.Mul4(ry).Mul4(rx))
}

// Build the inverse of RotateEuler4(angles).
func InvRotateEuler4(angles Vec3) Mat4 {
	rx := mgl32.HomogRotate3DX(-angles[0])
	ry := mgl32.HomogRotate3DY(-angles[1])
	rz := mgl32.HomogRotate3DZ(-angles[2])
	return Mat4(rx.Mul4(ry).Mul4(rz))
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a 4 component vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Calculate the matrix inverse.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Calculate the matrix transpose.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Transform a point (w = 1).
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// Transform a direction vector (w = 0); translation is ignored.
func (m Mat4) TransformVector(v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// Transform a normal using the transpose of the inverse matrix m.
func (m Mat4) TransformNormal(n Vec3) Vec3 {
	return Vec3{
		m[0]*n[0] + m[1]*n[1] + m[2]*n[2],
		m[4]*n[0] + m[5]*n[1] + m[6]*n[2],
		m[8]*n[0] + m[9]*n[1] + m[10]*n[2],
	}
}

// Compare two matrices element-wise using the package float tolerance.
func (m Mat4) ApproxEqual(m2 Mat4) bool {
	return mgl32.Mat4(m).ApproxFuncEqual(mgl32.Mat4(m2), func(a, b float32) bool {
		return approxEqual32(a, b, floatCmpEpsilon)
	})
}
