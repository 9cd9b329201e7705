package tracer

import (
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/scene"
	"github.com/gogpu/gputypes"
)

// A wavefront path tracer. Each pixel owns one path; every Step advances all
// paths by one wavefront iteration and accumulates finished samples into an
// RGBA float image whose alpha channel counts the samples per pixel.
type PathTracer struct {
	dev    *device.Device
	logger log.Logger

	width, height int
	camera        Camera
	opts          Options

	state    *PathState
	image    *device.Buffer[uint32]
	params   *device.Buffer[byte]
	ctx      *stepContext
	kernels  [numKernels]*device.Kernel
	queues   [3]*device.Queue
	fresh    bool
	numSteps int

	stats Stats
}

// Create a path tracer rendering sc into a width x height image. The scene
// must be built.
func New(dev *device.Device, sc *scene.Scene, width, height int, camera Camera, opts Options) (*PathTracer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidFrameSize, width, height)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	traceKernels := sc.Kernels()
	if traceKernels == nil {
		return nil, ErrSceneNotBuilt
	}
	if err := dev.Init(Program); err != nil {
		return nil, err
	}

	pt := &PathTracer{
		dev:    dev,
		logger: log.New("tracer"),
		width:  width,
		height: height,
		camera: camera,
		opts:   opts,
		fresh:  true,
	}
	if err := pt.setup(traceKernels); err != nil {
		pt.Close()
		return nil, err
	}

	pt.logger.Debugf(
		"allocated %d paths (%d bytes of path state) for a %dx%d frame on %s",
		pt.state.Len(), pt.state.Size(), width, height, dev.Name,
	)
	return pt, nil
}

func (pt *PathTracer) setup(traceKernels *scene.TraceKernels) error {
	numPaths := pt.width * pt.height

	var err error
	if pt.state, err = newPathState(pt.dev, numPaths); err != nil {
		return err
	}

	pt.image = device.NewBuffer[uint32](pt.dev, "accumulator", gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err = pt.image.Allocate(numPaths * 4); err != nil {
		return err
	}
	pt.params = device.NewBuffer[byte](pt.dev, "uniforms", gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err = pt.params.Allocate(UniformsSize); err != nil {
		return err
	}

	for i, name := range []string{"camera_queue", "material_queue", "ray_trace_queue"} {
		if pt.queues[i], err = device.NewQueue(pt.dev, name, numPaths); err != nil {
			return err
		}
	}

	for kt := kernelType(0); kt < numKernels; kt++ {
		if pt.kernels[kt], err = pt.dev.Kernel(kt.String()); err != nil {
			return err
		}
	}

	pt.ctx = &stepContext{
		opts:          &pt.opts,
		scene:         traceKernels,
		state:         pt.state,
		image:         pt.image,
		params:        pt.params,
		cameraQueue:   pt.queues[0],
		materialQueue: pt.queues[1],
		rayTraceQueue: pt.queues[2],
	}
	for _, kernel := range pt.kernels {
		if err = kernel.SetArgs(pt.ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run one wavefront iteration: logic, camera, material and ray trace passes
// in that order with a barrier between them.
func (pt *PathTracer) Step() error {
	start := time.Now()
	for _, q := range pt.queues {
		q.Reset()
	}

	uni := Uniforms{
		Width:          int32(pt.width),
		Height:         int32(pt.height),
		FirstSample:    pt.fresh,
		FOV:            pt.camera.FOV,
		CameraPosition: pt.camera.Position,
		CameraLookAt:   pt.camera.LookAt,
	}
	if err := pt.params.WriteData(uni.Encode(), 0); err != nil {
		return err
	}

	stats := StepStats{Step: pt.numSteps}
	dispatches := []struct {
		kt    kernelType
		count func() int
	}{
		{logicKernel, pt.state.Len},
		{cameraKernel, pt.ctx.cameraQueue.Len},
		{materialKernel, pt.ctx.materialQueue.Len},
		{rayTraceKernel, pt.ctx.rayTraceQueue.Len},
	}
	for _, d := range dispatches {
		count := d.count()
		elapsed, err := pt.kernels[d.kt].Exec1D(0, count, pt.opts.WorkGroupSize)
		if err != nil {
			return fmt.Errorf("tracer: step %d: %w", pt.numSteps, err)
		}
		stats.Kernels[d.kt] = KernelStats{Name: d.kt.String(), Invocations: count, Time: elapsed}
	}

	stats.CameraQueue = pt.ctx.cameraQueue.Len()
	stats.MaterialQueue = pt.ctx.materialQueue.Len()
	stats.RayTraceQueue = pt.ctx.rayTraceQueue.Len()
	stats.Time = time.Since(start)

	pt.fresh = false
	pt.numSteps++
	pt.stats.add(stats)
	return nil
}

// Discard the accumulated image and restart all paths.
func (pt *PathTracer) Reset() {
	pt.image.Clear()
	pt.state.Reset()
	for _, q := range pt.queues {
		q.Reset()
	}
	pt.fresh = true
	pt.numSteps = 0
	pt.stats = Stats{}
}

// Move the camera. The accumulated image is discarded.
func (pt *PathTracer) SetCamera(camera Camera) {
	pt.camera = camera
	pt.Reset()
}

// Get the frame dimensions.
func (pt *PathTracer) FrameSize() (int, int) {
	return pt.width, pt.height
}

// Get the number of steps since the last reset.
func (pt *PathTracer) Steps() int {
	return pt.numSteps
}

// Get the path state.
func (pt *PathTracer) State() *PathState {
	return pt.state
}

// Get the camera, material and ray trace queues.
func (pt *PathTracer) Queues() (camera, material, rayTrace *device.Queue) {
	return pt.queues[0], pt.queues[1], pt.queues[2]
}

// Get the accumulation image: width*height RGBA float32 values stored as
// their bit patterns.
func (pt *PathTracer) ImageBuffer() *device.Buffer[uint32] {
	return pt.image
}

// Copy the accumulation image to the host as RGBA floats.
func (pt *PathTracer) ReadImage() ([]float32, error) {
	bits := make([]uint32, pt.image.Len())
	if err := pt.image.ReadData(0, 0, 0, bits); err != nil {
		return nil, err
	}
	out := make([]float32, len(bits))
	for i, b := range bits {
		out[i] = math.Float32frombits(b)
	}
	return out, nil
}

// Get the accumulated step statistics.
func (pt *PathTracer) Stats() Stats {
	return pt.stats
}

// Release all device resources.
func (pt *PathTracer) Close() {
	for i, kernel := range pt.kernels {
		if kernel != nil {
			kernel.Release()
			pt.kernels[i] = nil
		}
	}
	for _, q := range pt.queues {
		if q != nil {
			q.Release()
		}
	}
	if pt.state != nil {
		pt.state.Release()
	}
	if pt.image != nil {
		pt.image.Release()
	}
	if pt.params != nil {
		pt.params.Release()
	}
}
