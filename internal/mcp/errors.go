package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/panel"
)

// Error codes carried by APIError.
const (
	CodePanelNotFound       = "PANEL_NOT_FOUND"
	CodeRunNotFound         = "RUN_NOT_FOUND"
	CodeEmptySelection      = "EMPTY_SELECTION"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeRunNotCompleted     = "RUN_NOT_COMPLETED"
	CodeArchivedRunNotFound = "ARCHIVED_RUN_NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidParams       = "INVALID_PARAMS"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeActivityDisabled    = "ACTIVITY_DISABLED"
	CodeArchiveDisabled     = "ARCHIVE_DISABLED"
	CodeInternal            = "INTERNAL"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, panel.ErrPanelNotFound):
		return &APIError{Code: CodePanelNotFound, Message: "panel not found", RecoveryHint: "Call open_panel first"}
	case errors.Is(err, panel.ErrRunNotFound), errors.Is(err, orchestrator.ErrNoRun):
		return &APIError{Code: CodeRunNotFound, Message: "panel has no consultation run", RecoveryHint: "Call start_consultation first"}
	case errors.Is(err, panel.ErrEmptySelection):
		return &APIError{Code: CodeEmptySelection, Message: "no participants selected", RecoveryHint: "Pass participant_ids, see list_participants"}
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		return &APIError{Code: CodeInvalidTransition, Message: err.Error(), RecoveryHint: "Check the panel view with get_consultation"}
	case errors.Is(err, orchestrator.ErrRunNotCompleted):
		return &APIError{Code: CodeRunNotCompleted, Message: "consultation is still playing", RecoveryHint: "Wait for the run to complete"}
	case errors.Is(err, archive.ErrRunNotFound):
		return &APIError{Code: CodeArchivedRunNotFound, Message: "archived run not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, panel.ErrInvalidInput), errors.Is(err, archive.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error()}
	default:
		return nil
	}
}
