package entity

import "errors"

var (
	// Input errors
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrImageTooSmall    = errors.New("image too small")
	ErrImageTooLarge    = errors.New("image too large")
	ErrNoImageProvided  = errors.New("no image file provided")

	// Style errors
	ErrUnknownStyle   = errors.New("unknown style")
	ErrDuplicateStyle = errors.New("duplicate style")
)
