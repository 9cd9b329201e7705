package renderer

import "errors"

var (
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrInvalidFrameSize = errors.New("renderer: invalid frame size")
	ErrNoSteps          = errors.New("renderer: steps per frame must be positive")
)
