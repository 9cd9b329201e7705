package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/tracer"
)

type Renderer interface {
	// Render frame.
	Render() (*image.RGBA, error)

	// Move the camera and discard accumulated samples.
	SetCamera(tracer.Camera)

	// Shutdown renderer and its tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// A renderer that drives a single path tracer for a fixed number of steps
// per frame and resolves the accumulated samples into an 8-bit image.
type defaultRenderer struct {
	logger log.Logger
	tracer *tracer.PathTracer
	opts   Options
	stats  FrameStats
}

// Create a renderer for a built scene.
func NewDefault(dev *device.Device, sc *scene.Scene, camera tracer.Camera, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, opts.FrameW, opts.FrameH)
	}
	if opts.StepsPerFrame == 0 {
		return nil, ErrNoSteps
	}

	tr, err := tracer.New(dev, sc, int(opts.FrameW), int(opts.FrameH), camera, opts.Tracer)
	if err != nil {
		return nil, err
	}

	return &defaultRenderer{
		logger: log.New("renderer"),
		tracer: tr,
		opts:   opts,
	}, nil
}

// Run the configured number of tracer steps and resolve the accumulated
// samples. Samples keep accumulating across frames until SetCamera is called.
func (r *defaultRenderer) Render() (*image.RGBA, error) {
	start := time.Now()
	before := r.tracer.Stats()

	for i := uint32(0); i < r.opts.StepsPerFrame; i++ {
		if err := r.tracer.Step(); err != nil {
			return nil, err
		}
	}
	traceTime := time.Since(start)

	tick := time.Now()
	accum, err := r.tracer.ReadImage()
	if err != nil {
		return nil, err
	}
	frame := Resolve(accum, int(r.opts.FrameW), int(r.opts.FrameH), r.opts.Exposure)
	resolveTime := time.Since(tick)

	after := r.tracer.Stats()
	kernels := after.PerKernel()
	for i, k := range before.PerKernel() {
		kernels[i].Invocations -= k.Invocations
		kernels[i].Time -= k.Time
	}

	r.stats = FrameStats{
		Steps:           int(r.opts.StepsPerFrame),
		Samples:         after.CompletedSamples,
		SamplesPerPixel: float32(after.CompletedSamples) / float32(r.opts.FrameW*r.opts.FrameH),
		Kernels:         kernels,
		TraceTime:       traceTime,
		ResolveTime:     resolveTime,
		RenderTime:      time.Since(start),
	}
	r.logger.Debugf("rendered frame in %d ms (%.1f spp)", r.stats.RenderTime.Milliseconds(), r.stats.SamplesPerPixel)

	return frame, nil
}

func (r *defaultRenderer) SetCamera(camera tracer.Camera) {
	r.tracer.SetCamera(camera)
}

func (r *defaultRenderer) Close() {
	r.tracer.Close()
}

func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Convert an RGBA float accumulation image, whose alpha channel counts the
// samples per pixel, into an 8-bit image. Each pixel is averaged over its
// samples, tonemapped with a simple Reinhard operator and gamma corrected.
// Pixels without samples are black.
func Resolve(accum []float32, width, height int, exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			offset := (y*width + x) * 4
			samples := accum[offset+3]
			var rgb [3]uint8
			if samples > 0 {
				for c := 0; c < 3; c++ {
					rgb[c] = toneMap(accum[offset+c] / samples * exposure)
				}
			}
			img.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return img
}

func toneMap(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	mapped := math.Pow(float64(v/(1+v)), 1/2.2)
	return uint8(math.Min(255, math.Round(mapped*255)))
}
