package imaging

import "errors"

var (
	// ErrInvalidSize is returned when a requested width or height is not positive.
	ErrInvalidSize = errors.New("image dimensions must be positive")
	// ErrOutOfBounds is returned when a crop rectangle is not inside the source.
	ErrOutOfBounds = errors.New("crop rectangle lies outside the source image")
	// ErrShrink is returned by Grow when the target is smaller than the source.
	ErrShrink = errors.New("target size is smaller than the source image")
	// ErrUnsupportedFormat is returned when an upload cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported or corrupt image data")
	// ErrTooLarge is returned by DecodeLimited when the header announces more
	// pixels than allowed.
	ErrTooLarge = errors.New("image has too many pixels")
)
