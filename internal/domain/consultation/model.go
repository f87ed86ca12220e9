// Package consultation derives an expert panel discussion from a free-text
// case: which specialists to invite, the scripted turns they speak, and the
// consensus topics that fall out of the script. Everything here is pure; the
// timed playback of a script lives in the playback package.
package consultation

import "github.com/rpggio/tumorboard/internal/domain/participant"

// SystemParticipantID attributes a turn to orchestrator narration.
const SystemParticipantID = "system"

// TurnKind marks turns with a structural role in the script.
type TurnKind string

const (
	KindNone          TurnKind = ""
	KindConsensusPoll TurnKind = "consensus_poll"
	KindSummary       TurnKind = "summary"
)

// Turn is one unit of simulated dialogue.
type Turn struct {
	ParticipantID string   `json:"participant_id"`
	Content       string   `json:"content"`
	Kind          TurnKind `json:"kind,omitempty"`
}

// IsSystem reports whether the turn is narration rather than a participant
// utterance.
func (t Turn) IsSystem() bool {
	return t.ParticipantID == SystemParticipantID
}

// ConsensusStatus is the state a topic reached during the discussion.
type ConsensusStatus string

const (
	StatusDiscussed ConsensusStatus = "Discussed"
	StatusProposed  ConsensusStatus = "Proposed"
	StatusPending   ConsensusStatus = "Pending"
	StatusAgreed    ConsensusStatus = "Agreed"
	StatusConfirmed ConsensusStatus = "Confirmed"
)

// ConsensusParticipant is the display form of a contributor to a topic.
type ConsensusParticipant struct {
	ID       string `json:"id"`
	Color    string `json:"color"`
	Initials string `json:"initials"`
}

// ConsensusRecord groups the turns that touched one topic.
type ConsensusRecord struct {
	Topic        string                 `json:"topic"`
	Status       ConsensusStatus        `json:"status"`
	DetailText   string                 `json:"detail_text"`
	Participants []ConsensusParticipant `json:"participants"`
}

func toConsensusParticipant(p participant.Participant) ConsensusParticipant {
	return ConsensusParticipant{
		ID:       p.ID,
		Color:    p.Color,
		Initials: p.Initials(),
	}
}
