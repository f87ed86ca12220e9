package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypePanelOpened     ActivityType = "panel_opened"
	TypeCaseAnalyzed    ActivityType = "case_analyzed"
	TypeRunStarted      ActivityType = "run_started"
	TypeRunCompleted    ActivityType = "run_completed"
	TypeRunCancelled    ActivityType = "run_cancelled"
	TypeReportOpened    ActivityType = "report_opened"
	TypeReportDenied    ActivityType = "report_denied"
	TypeReturnedToSetup ActivityType = "returned_to_setup"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case TypePanelOpened, TypeCaseAnalyzed, TypeRunStarted, TypeRunCompleted,
		TypeRunCancelled, TypeReportOpened, TypeReportDenied, TypeReturnedToSetup:
		return true
	}
	return false
}

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	PanelID      string       `json:"panel_id"`
	RunID        *string      `json:"run_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
