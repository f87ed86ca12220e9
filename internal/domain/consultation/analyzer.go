package consultation

import (
	"strings"

	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// Analyzer proposes panel participants for a case.
type Analyzer struct {
	catalog *participant.Catalog
	rules   []KeywordRule
}

// NewAnalyzer creates an analyzer over catalog using SuggestionRules.
func NewAnalyzer(catalog *participant.Catalog) *Analyzer {
	return &Analyzer{catalog: catalog, rules: SuggestionRules}
}

// Suggest scans the case text for keywords and returns matching participants
// in catalog order. It never returns an empty list when the default pair is in
// the catalog.
func (a *Analyzer) Suggest(caseText string) []participant.Participant {
	text := strings.ToLower(caseText)
	matched := make(map[string]struct{})
	for _, rule := range a.rules {
		if _, already := matched[rule.ParticipantID]; already {
			continue
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				matched[rule.ParticipantID] = struct{}{}
				break
			}
		}
	}

	suggestions := a.catalog.InCatalogOrder(matched)
	if len(suggestions) > 0 {
		return suggestions
	}

	fallback := make(map[string]struct{}, len(DefaultSuggestions))
	for _, id := range DefaultSuggestions {
		fallback[id] = struct{}{}
	}
	return a.catalog.InCatalogOrder(fallback)
}

// InitialSelection returns the participants a UI should pre-select: the first
// two suggestions, or fewer when fewer were suggested.
func InitialSelection(suggestions []participant.Participant) []participant.Participant {
	n := min(2, len(suggestions))
	out := make([]participant.Participant, n)
	copy(out, suggestions[:n])
	return out
}
