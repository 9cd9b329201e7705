package tracer

import (
	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/types"
	"github.com/gogpu/gputypes"
)

// Path flag bits.
const (
	// Set once a path has scattered off a diffuse surface.
	FlagDiffuseBounce uint32 = 1 << iota
)

// The state of all in-flight paths stored as a struct of arrays. It is
// allocated once for a fixed number of paths and restarted in place.
type PathState struct {
	// Image pixel each path contributes to.
	Pixel *device.Buffer[uint32]

	Bounces    *device.Buffer[uint32]
	Seed       *device.Buffer[float32]
	Throughput *device.Buffer[types.Vec3]

	// BRDF * cos / pdf of the last bounce in xyz and the pdf in w.
	Sample *device.Buffer[types.Vec4]

	Origin *device.Buffer[types.Vec3]
	Dir    *device.Buffer[types.Vec3]

	// Result of the last ray trace; scene.Miss when nothing was hit.
	HitObject   *device.Buffer[int32]
	HitTriangle *device.Buffer[int32]

	// Shading normal at the last material evaluation.
	Normal *device.Buffer[types.Vec3]

	Flags *device.Buffer[uint32]

	numPaths int
}

func newPathState(dev *device.Device, numPaths int) (*PathState, error) {
	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	ps := &PathState{
		Pixel:       device.NewBuffer[uint32](dev, "path_pixel", usage),
		Bounces:     device.NewBuffer[uint32](dev, "path_bounces", usage),
		Seed:        device.NewBuffer[float32](dev, "path_seed", usage),
		Throughput:  device.NewBuffer[types.Vec3](dev, "path_throughput", usage),
		Sample:      device.NewBuffer[types.Vec4](dev, "path_sample", usage),
		Origin:      device.NewBuffer[types.Vec3](dev, "path_origin", usage),
		Dir:         device.NewBuffer[types.Vec3](dev, "path_dir", usage),
		HitObject:   device.NewBuffer[int32](dev, "path_hit_object", usage),
		HitTriangle: device.NewBuffer[int32](dev, "path_hit_triangle", usage),
		Normal:      device.NewBuffer[types.Vec3](dev, "path_normal", usage),
		Flags:       device.NewBuffer[uint32](dev, "path_flags", usage),
		numPaths:    numPaths,
	}

	for _, alloc := range ps.allocators() {
		if err := alloc(numPaths); err != nil {
			ps.Release()
			return nil, err
		}
	}
	ps.Reset()
	return ps, nil
}

func (ps *PathState) allocators() []func(int) error {
	return []func(int) error{
		ps.Pixel.Allocate, ps.Bounces.Allocate, ps.Seed.Allocate,
		ps.Throughput.Allocate, ps.Sample.Allocate, ps.Origin.Allocate,
		ps.Dir.Allocate, ps.HitObject.Allocate, ps.HitTriangle.Allocate,
		ps.Normal.Allocate, ps.Flags.Allocate,
	}
}

// Get the number of paths.
func (ps *PathState) Len() int {
	return ps.numPaths
}

// Get the combined size of all path buffers in bytes.
func (ps *PathState) Size() int {
	return ps.Pixel.Size() + ps.Bounces.Size() + ps.Seed.Size() +
		ps.Throughput.Size() + ps.Sample.Size() + ps.Origin.Size() +
		ps.Dir.Size() + ps.HitObject.Size() + ps.HitTriangle.Size() +
		ps.Normal.Size() + ps.Flags.Size()
}

// Restart all paths: clear every buffer and mark all paths as not hitting
// anything.
func (ps *PathState) Reset() {
	ps.Pixel.Clear()
	ps.Bounces.Clear()
	ps.Seed.Clear()
	ps.Throughput.Clear()
	ps.Sample.Clear()
	ps.Origin.Clear()
	ps.Dir.Clear()
	ps.HitTriangle.Clear()
	ps.Normal.Clear()
	ps.Flags.Clear()
	hits := ps.HitObject.Data()
	for i := range hits {
		hits[i] = scene.Miss
	}
}

// Release all path buffers.
func (ps *PathState) Release() {
	ps.Pixel.Release()
	ps.Bounces.Release()
	ps.Seed.Release()
	ps.Throughput.Release()
	ps.Sample.Release()
	ps.Origin.Release()
	ps.Dir.Release()
	ps.HitObject.Release()
	ps.HitTriangle.Release()
	ps.Normal.Release()
	ps.Flags.Release()
}
