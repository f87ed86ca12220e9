// Package archive stores completed consultation runs for later review.
package archive

import (
	"time"

	"github.com/rpggio/tumorboard/internal/domain/consultation"
)

// ArchivedRun is a completed consultation run.
type ArchivedRun struct {
	ID             string                         `json:"id"`
	TenantID       string                         `json:"tenant_id"`
	PanelID        string                         `json:"panel_id"`
	CaseText       string                         `json:"case_text"`
	ParticipantIDs []string                       `json:"participant_ids"`
	Transcript     []consultation.Turn            `json:"transcript"`
	Consensus      []consultation.ConsensusRecord `json:"consensus"`
	StartedAt      time.Time                      `json:"started_at"`
	CompletedAt    time.Time                      `json:"completed_at"`
}

// RunSummary is the list form of an archived run.
type RunSummary struct {
	ID             string    `json:"id"`
	PanelID        string    `json:"panel_id"`
	CaseExcerpt    string    `json:"case_excerpt"`
	ParticipantIDs []string  `json:"participant_ids"`
	TurnCount      int       `json:"turn_count"`
	Topics         []string  `json:"topics"`
	CompletedAt    time.Time `json:"completed_at"`
}

const excerptRunes = 80

// Summarize builds the list form of run.
func Summarize(run *ArchivedRun) RunSummary {
	topics := make([]string, 0, len(run.Consensus))
	for _, record := range run.Consensus {
		topics = append(topics, record.Topic)
	}
	excerpt := []rune(run.CaseText)
	if len(excerpt) > excerptRunes {
		excerpt = append(excerpt[:excerptRunes], []rune("...")...)
	}
	return RunSummary{
		ID:             run.ID,
		PanelID:        run.PanelID,
		CaseExcerpt:    string(excerpt),
		ParticipantIDs: run.ParticipantIDs,
		TurnCount:      len(run.Transcript),
		Topics:         topics,
		CompletedAt:    run.CompletedAt,
	}
}
