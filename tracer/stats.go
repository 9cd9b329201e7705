package tracer

import "time"

// Timing of a single kernel dispatch.
type KernelStats struct {
	Name        string
	Invocations int
	Time        time.Duration
}

// Statistics for one Step.
type StepStats struct {
	Step    int
	Kernels [numKernels]KernelStats

	// Queue sizes at the end of the step.
	CameraQueue   int
	MaterialQueue int
	RayTraceQueue int

	Time time.Duration
}

// Statistics accumulated since the last reset.
type Stats struct {
	Steps int

	// Totals per kernel.
	KernelTime        [numKernels]time.Duration
	KernelInvocations [numKernels]int
	TotalTime         time.Duration

	// Number of paths restarted by the logic pass.
	CompletedSamples int

	Last StepStats
}

func (s *Stats) add(step StepStats) {
	s.Steps++
	for i, k := range step.Kernels {
		s.KernelTime[i] += k.Time
		s.KernelInvocations[i] += k.Invocations
	}
	s.TotalTime += step.Time
	if step.Step > 0 {
		s.CompletedSamples += step.CameraQueue
	}
	s.Last = step
}

// Get per-kernel totals in execution order.
func (s *Stats) PerKernel() []KernelStats {
	out := make([]KernelStats, numKernels)
	for kt := kernelType(0); kt < numKernels; kt++ {
		out[kt] = KernelStats{Name: kt.String(), Invocations: s.KernelInvocations[kt], Time: s.KernelTime[kt]}
	}
	return out
}
