// Package panel hosts expert panels: one orchestrator per panel, keyed by
// tenant, with activity logging and archiving of completed runs.
package panel

import (
	"time"

	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// State describes a panel and its current run.
type State struct {
	PanelID   string                 `json:"panel_id"`
	View      orchestrator.View      `json:"view"`
	CreatedAt time.Time              `json:"created_at"`
	Run       *orchestrator.Snapshot `json:"run,omitempty"`
}

// AnalyzeResult holds suggested participants and the default selection.
type AnalyzeResult struct {
	Suggestions      []participant.Participant `json:"suggestions"`
	InitialSelection []string                  `json:"initial_selection"`
}

// StartRequest describes a consultation start request.
type StartRequest struct {
	PanelID        string
	ParticipantIDs []string
	CaseText       string
}
