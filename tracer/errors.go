package tracer

import "errors"

var (
	ErrInvalidFrameSize = errors.New("tracer: frame width and height must be positive")
	ErrSceneNotBuilt    = errors.New("tracer: scene has not been built")
	ErrInvalidOptions   = errors.New("tracer: invalid options")
	ErrInvalidUniforms  = errors.New("tracer: invalid uniform block")
)
