package orchestrator

import "errors"

var (
	// ErrInvalidTransition indicates the requested view change is not allowed
	// from the current view.
	ErrInvalidTransition = errors.New("invalid view transition")
	// ErrRunNotCompleted indicates the run is still playing or was cancelled.
	ErrRunNotCompleted = errors.New("consultation run has not completed")
	// ErrNoRun indicates there is no current run.
	ErrNoRun = errors.New("no consultation run")
)
