package archive

import "errors"

var (
	// ErrRunNotFound indicates the archived run doesn't exist.
	ErrRunNotFound = errors.New("archived run not found")
	// ErrInvalidInput indicates an archived run is missing required fields.
	ErrInvalidInput = errors.New("invalid archive input")
)
