package tracer

import "fmt"

// Path tracer tuning parameters.
type Options struct {
	// Invocations per workgroup for all tracer kernels. It also sets the
	// capacity of the workgroup-local staging buffers.
	WorkGroupSize int

	// Paths whose bounce count exceeds this value are terminated.
	MaxBounces uint32

	// Russian roulette is applied to paths with more bounces than this.
	RRMinBounces uint32

	// Clamp range for the Russian roulette termination probability.
	RRMinProbability float32
	RRMaxProbability float32

	// Radiance returned by rays that escape the scene.
	MissRadiance float32

	// Diffuse albedo per material index. Objects with an out of range
	// material index use the first entry.
	Albedos []float32

	// Offset along the surface normal applied to bounce ray origins.
	NormalOffset float32

	// Added to the hashed path index when seeding the RNG.
	SeedOffset float32
}

// Get the default tracer options.
func DefaultOptions() Options {
	return Options{
		WorkGroupSize:    64,
		MaxBounces:       20,
		RRMinBounces:     3,
		RRMinProbability: 0.1,
		RRMaxProbability: 0.7,
		MissRadiance:     8,
		Albedos:          []float32{0.5, 0.2},
		NormalOffset:     1e-4,
		SeedOffset:       0.008,
	}
}

func (o *Options) validate() error {
	switch {
	case o.WorkGroupSize <= 0:
		return fmt.Errorf("%w: workgroup size must be positive; got %d", ErrInvalidOptions, o.WorkGroupSize)
	case len(o.Albedos) == 0:
		return fmt.Errorf("%w: at least one material albedo is required", ErrInvalidOptions)
	case o.RRMinProbability < 0 || o.RRMaxProbability >= 1 || o.RRMinProbability > o.RRMaxProbability:
		return fmt.Errorf("%w: russian roulette probability range [%f, %f] must lie within [0, 1)", ErrInvalidOptions, o.RRMinProbability, o.RRMaxProbability)
	}
	return nil
}

func (o *Options) albedo(material uint32) float32 {
	if int(material) >= len(o.Albedos) {
		return o.Albedos[0]
	}
	return o.Albedos[material]
}
