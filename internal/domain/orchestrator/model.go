package orchestrator

import (
	"time"

	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
)

// View is the top-level state of a panel.
type View string

const (
	ViewSetup        View = "setup"
	ViewConsultation View = "consultation"
	ViewReport       View = "report"
)

// Transition is the outcome of a view change request. A denied transition
// leaves the view unchanged.
type Transition struct {
	From   View `json:"from"`
	View   View `json:"view"`
	Denied bool `json:"denied,omitempty"`
}

// Listener receives run events. Nil fields are skipped.
type Listener struct {
	// OnTyping reports who is typing. An empty id clears the indicator.
	OnTyping   func(participantID string)
	OnTurn     func(turn consultation.Turn)
	OnComplete func()
}

// Snapshot is a point-in-time copy of a run.
type Snapshot struct {
	RunID        string                         `json:"run_id"`
	CaseText     string                         `json:"case_text"`
	Participants []participant.Participant      `json:"participants"`
	Status       playback.Status                `json:"status"`
	Transcript   []consultation.Turn            `json:"transcript"`
	TotalTurns   int                            `json:"total_turns"`
	TypingID     string                         `json:"typing_participant_id,omitempty"`
	Consensus    []consultation.ConsensusRecord `json:"consensus,omitempty"`
	StartedAt    time.Time                      `json:"started_at"`
	CompletedAt  *time.Time                     `json:"completed_at,omitempty"`
}
