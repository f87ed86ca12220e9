package consultation

import (
	"fmt"
	"strings"

	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// Generator builds the ordered script for a consultation run. Turn presence
// and order depend only on the participant set; phrase choices come from the
// injected Rand.
type Generator struct {
	rng           Rand
	excerptLength int
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithExcerptLength caps how much of the case text is quoted in turns.
func WithExcerptLength(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.excerptLength = n
		}
	}
}

// NewGenerator creates a script generator.
func NewGenerator(rng Rand, opts ...GeneratorOption) *Generator {
	g := &Generator{rng: rng, excerptLength: 100}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	imagingFindings = []string{
		"The CT scan shows a 3.2 cm spiculated lesion with no evidence of distant spread.",
		"The MRI shows a well-circumscribed mass with mild surrounding enhancement and no nodal involvement.",
	}
	pathologyFindings = []string{
		"The biopsy confirms adenocarcinoma, moderately differentiated.",
		"The biopsy shows squamous cell carcinoma; molecular marker testing is still pending.",
	}
	oncologyRegimens = []string{
		"platinum-based chemotherapy",
		"a combination of chemotherapy and immunotherapy",
	}
	surgicalOpinions = []string{
		"resectable with a lobectomy, and the patient looks like a reasonable operative candidate.",
		"borderline resectable; I would reassess after neoadjuvant therapy.",
	}
	comparisonFindings = []string{
		"the lesion has grown by about 4 mm.",
		"there is no significant interval change.",
	}
	radiationPlans = []string{
		"five fractions would be well tolerated.",
		"we could deliver 60 Gy over eight fractions while sparing the airway.",
	}
)

// Generate returns the script for participants discussing caseText.
func (g *Generator) Generate(participants []participant.Participant, caseText string) []Turn {
	if len(participants) == 0 {
		return []Turn{{
			ParticipantID: SystemParticipantID,
			Content:       "No participants were selected for this consultation. Select at least one specialist to start the discussion.",
			Kind:          KindSummary,
		}}
	}

	selected := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		selected[p.ID] = struct{}{}
	}
	has := func(id string) bool {
		_, ok := selected[id]
		return ok
	}
	excerpt := g.excerpt(caseText)

	var script []Turn
	for i, rule := range DomainOrder {
		if !has(rule.ParticipantID) {
			if i == 0 {
				script = append(script, Turn{
					ParticipantID: participants[0].ID,
					Content:       fmt.Sprintf("Let's begin our review of this case: %q. I'd like to hear everyone's initial impressions before we commit to a plan.", excerpt),
				})
			}
			continue
		}
		script = append(script, Turn{
			ParticipantID: rule.ParticipantID,
			Content:       g.domainContent(rule.Domain, excerpt),
		})
	}

	pollSpeaker := participants[0].ID
	if has(PollOwner) {
		pollSpeaker = PollOwner
	}
	script = append(script, Turn{
		ParticipantID: pollSpeaker,
		Content:       "Let's move toward consensus. Does everyone agree with the proposed plan and the next steps for this patient?",
		Kind:          KindConsensusPoll,
	})

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.DisplayName)
	}
	script = append(script, Turn{
		ParticipantID: SystemParticipantID,
		Content:       fmt.Sprintf("Summary: %s reviewed the case and reached a preliminary consensus. The full consensus report is ready.", joinNames(names)),
		Kind:          KindSummary,
	})

	return filterToSelection(script, selected)
}

func (g *Generator) domainContent(domain Domain, excerpt string) string {
	switch domain {
	case DomainImaging:
		return fmt.Sprintf("I've reviewed the imaging for %q. %s", excerpt, g.pick(imagingFindings))
	case DomainPathology:
		return g.pick(pathologyFindings) + " I'd like the full pathology report before we finalize anything."
	case DomainOncology:
		return fmt.Sprintf("Based on these findings, I recommend %s as first-line treatment.", g.pick(oncologyRegimens))
	case DomainSurgicalCandidacy:
		return "From a surgical perspective, the lesion appears " + g.pick(surgicalOpinions)
	case DomainImagingComparison:
		return "Compared with the prior scan, " + g.pick(comparisonFindings)
	case DomainRadiationTherapy:
		return "If surgery is not pursued, stereotactic body radiation therapy is a strong option; " + g.pick(radiationPlans)
	default:
		return ""
	}
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *Generator) excerpt(caseText string) string {
	text := strings.Join(strings.Fields(caseText), " ")
	runes := []rune(text)
	if len(runes) <= g.excerptLength {
		return text
	}
	return strings.TrimSpace(string(runes[:g.excerptLength])) + "..."
}

// filterToSelection drops participant turns whose speaker is not selected.
func filterToSelection(script []Turn, selected map[string]struct{}) []Turn {
	out := script[:0]
	for _, turn := range script {
		if !turn.IsSystem() {
			if _, ok := selected[turn.ParticipantID]; !ok {
				continue
			}
		}
		out = append(out, turn)
	}
	return out
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "the panel"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
