package device

import "errors"

var (
	ErrDeviceNotInitialized = errors.New("device not initialized")
	ErrKernelNotFound       = errors.New("kernel not found")
	ErrBufferOverflow       = errors.New("insufficient buffer space")
	ErrQueueOverflow        = errors.New("queue capacity exceeded")
	ErrStageOverflow        = errors.New("workgroup staging buffer capacity exceeded")
)
