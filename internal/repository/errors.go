package repository

import "errors"

var (
	// ErrInvalidImageRef indicates an image reference that cannot be routed
	ErrInvalidImageRef = errors.New("invalid image reference")

	// ErrUnsupportedScheme indicates no source is registered for the scheme
	ErrUnsupportedScheme = errors.New("unsupported image reference scheme")

	// ErrReportNotFound indicates the report was not found
	ErrReportNotFound = errors.New("report not found")
)
