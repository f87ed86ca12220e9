package panel

import "errors"

var (
	// ErrPanelNotFound indicates the panel doesn't exist for the tenant.
	ErrPanelNotFound = errors.New("panel not found")
	// ErrRunNotFound indicates the panel has no current run.
	ErrRunNotFound = errors.New("panel has no consultation run")
	// ErrEmptySelection indicates no participants were requested.
	ErrEmptySelection = errors.New("participant selection is empty")
	// ErrInvalidInput indicates invalid panel input.
	ErrInvalidInput = errors.New("invalid panel input")
)
