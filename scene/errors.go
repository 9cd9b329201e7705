package scene

import "errors"

var (
	ErrNotBuilt                 = errors.New("scene: acceleration structures have not been built")
	ErrTraversalStackOverflow   = errors.New("scene: traversal stack overflow")
	ErrInvalidObjectReference   = errors.New("scene: invalid object reference")
	ErrInvalidTriangleReference = errors.New("scene: invalid triangle reference")
)
