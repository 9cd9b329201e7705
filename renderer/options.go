package renderer

import "github.com/achilleasa/wavefront/tracer"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of tracer steps per rendered frame.
	StepsPerFrame uint32

	// Exposure for tonemapping.
	Exposure float32

	// Path tracer tuning.
	Tracer tracer.Options
}
