package consultation

import (
	"strings"

	"github.com/rpggio/tumorboard/internal/domain/participant"
)

type topicAccumulator struct {
	status       ConsensusStatus
	participants []string
	seen         map[string]struct{}
	details      []string
}

func (acc *topicAccumulator) add(turn Turn) {
	if _, ok := acc.seen[turn.ParticipantID]; !ok {
		acc.seen[turn.ParticipantID] = struct{}{}
		acc.participants = append(acc.participants, turn.ParticipantID)
	}
	acc.details = append(acc.details, turn.Content)
}

// Extract derives consensus records from a full script. It is deterministic
// and always returns at least one record.
//
// A consensus poll forces every topic it touches to Proposed, even a topic
// that already had an unrelated status; polls that touch no topic are filed
// under Next Steps.
func Extract(script []Turn, participants []participant.Participant) []ConsensusRecord {
	byID := make(map[string]participant.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	accs := make([]*topicAccumulator, len(TopicRules))
	nextSteps := -1
	for i, rule := range TopicRules {
		accs[i] = &topicAccumulator{status: rule.DefaultStatus, seen: make(map[string]struct{})}
		if rule.Topic == TopicNextSteps {
			nextSteps = i
		}
	}

	for _, turn := range script {
		if turn.IsSystem() {
			continue
		}
		if _, selected := byID[turn.ParticipantID]; !selected {
			continue
		}
		content := strings.ToLower(turn.Content)
		matchedAny := false
		for i, rule := range TopicRules {
			if !containsAny(content, rule.Keywords) {
				continue
			}
			matchedAny = true
			accs[i].add(turn)
			if turn.Kind == KindConsensusPoll {
				accs[i].status = StatusProposed
			}
		}
		if !matchedAny && turn.Kind == KindConsensusPoll && nextSteps >= 0 {
			accs[nextSteps].add(turn)
			accs[nextSteps].status = StatusProposed
		}
	}

	var records []ConsensusRecord
	for i, rule := range TopicRules {
		acc := accs[i]
		if len(acc.participants) == 0 {
			continue
		}
		detail := strings.Join(acc.details, detailSeparator)
		if strings.TrimSpace(detail) == "" {
			detail = detailPlaceholder
		}
		contributors := make([]ConsensusParticipant, 0, len(acc.participants))
		for _, id := range acc.participants {
			contributors = append(contributors, toConsensusParticipant(byID[id]))
		}
		records = append(records, ConsensusRecord{
			Topic:        rule.Topic,
			Status:       acc.status,
			DetailText:   detail,
			Participants: contributors,
		})
	}

	if len(records) > 0 {
		return records
	}

	everyone := make([]ConsensusParticipant, 0, len(participants))
	for _, p := range participants {
		everyone = append(everyone, toConsensusParticipant(p))
	}
	return []ConsensusRecord{{
		Topic:        TopicGeneral,
		Status:       StatusDiscussed,
		DetailText:   generalDetail,
		Participants: everyone,
	}}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
