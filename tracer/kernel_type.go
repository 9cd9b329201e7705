package tracer

import (
	"fmt"

	"github.com/achilleasa/wavefront/device"
)

type kernelType uint8

// The tracer kernels in execution order.
const (
	logicKernel kernelType = iota
	cameraKernel
	materialKernel
	rayTraceKernel
	//
	numKernels
)

// Implements Stringer; map kernel type to the kernel name registered with the device.
func (kt kernelType) String() string {
	switch kt {
	case logicKernel:
		return "pt_logic"
	case cameraKernel:
		return "pt_camera"
	case materialKernel:
		return "pt_material"
	case rayTraceKernel:
		return "pt_ray_trace"
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}

// The path tracer kernels.
var Program = device.Program{
	logicKernel.String():    runLogic,
	cameraKernel.String():   runCamera,
	materialKernel.String(): runMaterial,
	rayTraceKernel.String(): runRayTrace,
}
