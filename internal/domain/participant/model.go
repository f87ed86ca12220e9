package participant

import "strings"

// AnimationStyle describes how a participant avatar animates while typing.
type AnimationStyle string

const (
	AnimationPulse     AnimationStyle = "pulse"
	AnimationBounce    AnimationStyle = "bounce"
	AnimationBreathe   AnimationStyle = "breathe"
	AnimationHeartbeat AnimationStyle = "heartbeat"
)

// Valid reports whether the style is one of the known animations. The empty
// style is valid and means "no animation".
func (a AnimationStyle) Valid() bool {
	switch a {
	case "", AnimationPulse, AnimationBounce, AnimationBreathe, AnimationHeartbeat:
		return true
	}
	return false
}

// Well-known participant IDs referenced by the keyword tables.
const (
	Oncologist          = "oncologist"
	Radiologist         = "radiologist"
	Pathologist         = "pathologist"
	Surgeon             = "surgeon"
	RadiationOncologist = "radiation-oncologist"
	Pulmonologist       = "pulmonologist"
	Cardiologist        = "cardiologist"

	// UnknownID identifies the fallback record returned for catalog misses.
	UnknownID = "unknown"
)

// Participant is a specialist descriptor from the catalog.
type Participant struct {
	ID               string         `json:"id" yaml:"id"`
	DisplayName      string         `json:"display_name" yaml:"display_name"`
	Color            string         `json:"color" yaml:"color"`
	ShortDescription string         `json:"short_description" yaml:"short_description"`
	Icon             string         `json:"icon" yaml:"icon"`
	Personality      string         `json:"personality,omitempty" yaml:"personality,omitempty"`
	AnimationStyle   AnimationStyle `json:"animation_style,omitempty" yaml:"animation_style,omitempty"`
}

// Initials returns the first two characters of the display name, uppercased.
func (p Participant) Initials() string {
	runes := []rune(p.DisplayName)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// Unknown is returned for IDs that cannot be resolved.
var Unknown = Participant{
	ID:               UnknownID,
	DisplayName:      "Unknown Specialist",
	Color:            "#9CA3AF",
	ShortDescription: "This participant is not part of the panel catalog.",
	Icon:             "user",
}

// IDs returns the IDs of the given participants in order.
func IDs(participants []Participant) []string {
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	return ids
}
