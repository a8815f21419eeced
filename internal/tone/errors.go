package tone

import "errors"

var (
	// ErrInvalidParameter is returned for negative factors, non-finite values,
	// and tile grids that do not fit the image.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrShapeMismatch is returned when two rasters that must share a shape do not.
	ErrShapeMismatch = errors.New("shape mismatch")
)
