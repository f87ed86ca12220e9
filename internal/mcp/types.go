package mcp

import (
	"time"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

type EmptyParams struct{}

type PanelParams struct {
	PanelID string `json:"panel_id,omitempty" jsonschema:"panel id returned by open_panel; defaults to the panel bound to the session"`
}

type AnalyzeCaseParams struct {
	PanelID  string `json:"panel_id,omitempty" jsonschema:"panel id returned by open_panel; defaults to the panel bound to the session"`
	CaseText string `json:"case_text" jsonschema:"free-text clinical case description"`
}

type StartConsultationParams struct {
	PanelID        string   `json:"panel_id,omitempty" jsonschema:"panel id returned by open_panel; defaults to the panel bound to the session"`
	ParticipantIDs []string `json:"participant_ids" jsonschema:"participant ids to invite; unknown ids are dropped"`
	CaseText       string   `json:"case_text,omitempty" jsonschema:"case text quoted by the panel"`
}

type GetRecentActivityParams struct {
	PanelID      string                 `json:"panel_id,omitempty" jsonschema:"panel id to filter by; defaults to the panel bound to the session"`
	RunID        *string                `json:"run_id,omitempty" jsonschema:"run id to filter by"`
	ActivityType *activity.ActivityType `json:"activity_type,omitempty" jsonschema:"activity type to filter by"`
	Limit        int                    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type ListArchivedRunsParams struct {
	PanelID string `json:"panel_id,omitempty" jsonschema:"panel id to filter by"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of runs"`
	Offset  int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

type GetArchivedRunParams struct {
	RunID string `json:"run_id" jsonschema:"archived run id"`
}

type ListParticipantsResponse struct {
	Participants []participant.Participant `json:"participants"`
}

type ConsensusResponse struct {
	PanelID   string                         `json:"panel_id"`
	Consensus []consultation.ConsensusRecord `json:"consensus"`
}

type TransitionResponse struct {
	PanelID string            `json:"panel_id"`
	From    orchestrator.View `json:"from"`
	View    orchestrator.View `json:"view"`
	Denied  bool              `json:"denied"`
}

type ClosePanelResponse struct {
	PanelID string `json:"panel_id"`
	Closed  bool   `json:"closed"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	PanelID   string                `json:"panel_id"`
	RunID     *string               `json:"run_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}
