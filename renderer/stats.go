package renderer

import (
	"time"

	"github.com/achilleasa/wavefront/tracer"
)

type FrameStats struct {
	// Number of tracer steps run for this frame.
	Steps int

	// Total samples accumulated since the tracer was reset.
	Samples int

	// Average samples per pixel.
	SamplesPerPixel float32

	// Per-kernel totals for this frame.
	Kernels []tracer.KernelStats

	// Time spent stepping the tracer and resolving the image.
	TraceTime   time.Duration
	ResolveTime time.Duration

	// Total render time for entire frame.
	RenderTime time.Duration
}
