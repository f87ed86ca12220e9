package consultation

import "github.com/rpggio/tumorboard/internal/domain/participant"

// KeywordRule maps a participant to the case-text keywords that suggest it.
type KeywordRule struct {
	ParticipantID string
	Keywords      []string
}

// SuggestionRules drives case analysis. Any keyword found as a lowercase
// substring of the case text suggests the rule's participant.
var SuggestionRules = []KeywordRule{
	{ParticipantID: participant.Oncologist, Keywords: []string{"cancer", "tumor", "tumour", "chemo", "malignan", "mass", "nodule", "lesion", "metasta"}},
	{ParticipantID: participant.Surgeon, Keywords: []string{"surgery", "resection", "surgical", "operable"}},
	{ParticipantID: participant.Radiologist, Keywords: []string{"image", "imaging", "scan", "mri", "x-ray", "mass", "nodule", "lesion"}},
	{ParticipantID: participant.Pathologist, Keywords: []string{"biopsy", "pathology", "histolog", "cytolog"}},
	{ParticipantID: participant.RadiationOncologist, Keywords: []string{"radiation", "radiotherapy"}},
	{ParticipantID: participant.Pulmonologist, Keywords: []string{"lung", "breath", "pulmonary", "cough"}},
	{ParticipantID: participant.Cardiologist, Keywords: []string{"heart", "cardiac", "chest pain"}},
}

// DefaultSuggestions is used when no rule matches the case text.
var DefaultSuggestions = []string{participant.Oncologist, participant.Radiologist}

// Domain is one step of the canonical discussion order.
type Domain string

const (
	DomainImaging           Domain = "imaging"
	DomainPathology         Domain = "pathology"
	DomainOncology          Domain = "oncology-management"
	DomainSurgicalCandidacy Domain = "surgical-candidacy"
	DomainImagingComparison Domain = "imaging-comparison"
	DomainRadiationTherapy  Domain = "radiation-therapy"
)

// DomainRule binds a discussion domain to the participant that speaks it.
type DomainRule struct {
	Domain        Domain
	ParticipantID string
}

// DomainOrder is the canonical order of participant-conditional turns.
var DomainOrder = []DomainRule{
	{Domain: DomainImaging, ParticipantID: participant.Radiologist},
	{Domain: DomainPathology, ParticipantID: participant.Pathologist},
	{Domain: DomainOncology, ParticipantID: participant.Oncologist},
	{Domain: DomainSurgicalCandidacy, ParticipantID: participant.Surgeon},
	{Domain: DomainImagingComparison, ParticipantID: participant.Radiologist},
	{Domain: DomainRadiationTherapy, ParticipantID: participant.RadiationOncologist},
}

// PollOwner speaks the consensus poll when present in the selection.
const PollOwner = participant.Oncologist

// TopicRule describes one consensus topic.
type TopicRule struct {
	Topic         string
	Keywords      []string
	DefaultStatus ConsensusStatus
}

// Topic names referenced outside the table.
const (
	TopicImaging   = "Imaging Findings"
	TopicPathology = "Pathology Report"
	TopicTreatment = "Treatment Plan"
	TopicSurgical  = "Surgical Assessment"
	TopicNextSteps = "Next Steps"
	TopicGeneral   = "General Discussion"
)

// TopicRules drives consensus extraction, in report order.
var TopicRules = []TopicRule{
	{Topic: TopicImaging, Keywords: []string{"imaging", "scan", "mri", "lesion", "mass"}, DefaultStatus: StatusDiscussed},
	{Topic: TopicPathology, Keywords: []string{"biopsy", "pathology", "histolog", "molecular", "carcinoma"}, DefaultStatus: StatusPending},
	{Topic: TopicTreatment, Keywords: []string{"treatment", "chemotherapy", "therapy", "regimen"}, DefaultStatus: StatusProposed},
	{Topic: TopicSurgical, Keywords: []string{"surgical", "surgery", "resection", "resectable", "lobectomy"}, DefaultStatus: StatusDiscussed},
	{Topic: TopicNextSteps, Keywords: []string{"next step", "follow-up", "recommend", "schedule"}, DefaultStatus: StatusProposed},
}

const (
	detailSeparator   = " | "
	detailPlaceholder = "No detailed notes were recorded for this topic."
	generalDetail     = "The panel reviewed the case without reaching topic-specific findings."
)
