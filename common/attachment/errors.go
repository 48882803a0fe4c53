package attachment

import "errors"

// Construction-time errors, always surfaced to the caller
var (
	// ErrNoFile is returned when no file or buffer is supplied at all
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidSource is returned when the upload has no readable
	// temporary file
	ErrInvalidSource = errors.New("upload has no readable source file")

	// ErrUnsupportedFormat is returned when the declared or sniffed
	// type is outside the allowed set
	ErrUnsupportedFormat = errors.New(
		`unsupported image format: only "jpeg", "png", "webp", "avif" and "tiff" are allowed`)
)
