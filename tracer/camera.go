package tracer

import (
	"math"

	"github.com/achilleasa/wavefront/types"
)

// A pinhole camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3

	// Field of view in degrees.
	FOV float32
}

// Get the camera frame. The world Z axis is up; a camera looking straight
// along Z uses the world X axis as its right vector.
func cameraBasis(position, lookAt types.Vec3) (right, forward, up types.Vec3) {
	forward = lookAt.Sub(position).Normalize()
	right = types.XYZ(forward[1], -forward[0], 0).Normalize()
	if right.IsZero() {
		right = types.XYZ(1, 0, 0)
	}
	up = right.Cross(forward)
	return right, forward, up
}

// Generate the primary ray through the continuous image coordinate coord
// (pixel units, origin at the top-left corner).
func (u *Uniforms) cameraRay(coord types.Vec2) types.Ray {
	w, h := float32(u.Width), float32(u.Height)
	sx := coord[0]/w*2 - 1
	sy := -(coord[1]/h*2 - 1)

	halfFOV := float32(math.Sin(float64(u.FOV) * math.Pi / 180))
	local := types.XYZ(w/h*sx*halfFOV, 1, sy*halfFOV).Normalize()

	right, forward, up := cameraBasis(u.CameraPosition, u.CameraLookAt)
	return types.Ray{
		Origin: u.CameraPosition,
		Dir:    toWorld(right, forward, up, local),
	}
}
