package consultation_test

import (
	"testing"

	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/stretchr/testify/require"
)

// sequenceRand returns a repeating sequence of choices.
type sequenceRand struct {
	values []int
	next   int
}

func (r *sequenceRand) IntN(n int) int {
	v := r.values[r.next%len(r.values)] % n
	r.next++
	return v
}

func (r *sequenceRand) Int64N(n int64) int64 {
	return int64(r.IntN(int(n)))
}

func pick(t *testing.T, ids ...string) []participant.Participant {
	t.Helper()
	catalog := participant.DefaultCatalog()
	out := catalog.Resolve(ids)
	require.Len(t, out, len(ids))
	return out
}

func speakers(script []consultation.Turn) []string {
	out := make([]string, 0, len(script))
	for _, turn := range script {
		out = append(out, turn.ParticipantID)
	}
	return out
}

func TestGenerate_FullPanelOrder(t *testing.T) {
	gen := consultation.NewGenerator(consultation.NewRand(1))
	panel := participant.DefaultCatalog().All()

	script := gen.Generate(panel, "lung mass")
	require.Equal(t, []string{
		participant.Radiologist,
		participant.Pathologist,
		participant.Oncologist,
		participant.Surgeon,
		participant.Radiologist,
		participant.RadiationOncologist,
		participant.Oncologist,
		consultation.SystemParticipantID,
	}, speakers(script))
	require.Equal(t, consultation.KindConsensusPoll, script[6].Kind)
	require.Equal(t, consultation.KindSummary, script[7].Kind)
}

func TestGenerate_NoImagingParticipantStartsWithInitiatingTurn(t *testing.T) {
	gen := consultation.NewGenerator(consultation.NewRand(1))

	script := gen.Generate(pick(t, participant.Surgeon, participant.Cardiologist), "chest pain")
	require.Equal(t, []string{
		participant.Surgeon,
		participant.Surgeon,
		participant.Surgeon,
		consultation.SystemParticipantID,
	}, speakers(script))
	require.Contains(t, script[0].Content, "Let's begin our review")
	require.Contains(t, script[0].Content, "chest pain")
	require.Equal(t, consultation.KindConsensusPoll, script[2].Kind)
}

func TestGenerate_Empty(t *testing.T) {
	gen := consultation.NewGenerator(consultation.NewRand(1))

	script := gen.Generate(nil, "anything")
	require.Len(t, script, 1)
	require.Equal(t, consultation.SystemParticipantID, script[0].ParticipantID)
	require.Equal(t, consultation.KindSummary, script[0].Kind)
	require.Contains(t, script[0].Content, "No participants")
}

func TestGenerate_PropertiesForAllSubsets(t *testing.T) {
	all := participant.DefaultCatalog().All()
	gen := consultation.NewGenerator(consultation.NewRand(42))

	for mask := 0; mask < 1<<len(all); mask++ {
		var subset []participant.Participant
		allowed := map[string]bool{}
		for i, p := range all {
			if mask&(1<<i) != 0 {
				subset = append(subset, p)
				allowed[p.ID] = true
			}
		}

		script := gen.Generate(subset, "case")
		require.NotEmpty(t, script)
		last := script[len(script)-1]
		require.Equal(t, consultation.SystemParticipantID, last.ParticipantID, "mask %b", mask)
		require.Equal(t, consultation.KindSummary, last.Kind, "mask %b", mask)

		polls := 0
		for _, turn := range script {
			if !turn.IsSystem() {
				require.True(t, allowed[turn.ParticipantID], "mask %b: %s not selected", mask, turn.ParticipantID)
			}
			if turn.Kind == consultation.KindConsensusPoll {
				polls++
			}
		}
		if len(subset) > 0 {
			require.Equal(t, 1, polls, "mask %b", mask)
		} else {
			require.Zero(t, polls)
		}
	}
}

func TestGenerate_StructureIndependentOfRandomness(t *testing.T) {
	panel := pick(t, participant.Oncologist, participant.Radiologist, participant.Pathologist)
	a := consultation.NewGenerator(&sequenceRand{values: []int{0}}).Generate(panel, "case")
	b := consultation.NewGenerator(&sequenceRand{values: []int{1}}).Generate(panel, "case")

	require.Equal(t, speakers(a), speakers(b))
	require.NotEqual(t, a[0].Content, b[0].Content)
}

func TestGenerate_SeededContentIsReproducible(t *testing.T) {
	panel := pick(t, participant.Oncologist, participant.Radiologist)
	a := consultation.NewGenerator(consultation.NewRand(7)).Generate(panel, "case")
	b := consultation.NewGenerator(consultation.NewRand(7)).Generate(panel, "case")
	require.Equal(t, a, b)
}

func TestGenerate_PinnedPhrases(t *testing.T) {
	panel := pick(t, participant.Radiologist, participant.Oncologist)
	script := consultation.NewGenerator(&sequenceRand{values: []int{0}}).Generate(panel, "55-year-old with a lung mass")

	require.Equal(t, `I've reviewed the imaging for "55-year-old with a lung mass". The CT scan shows a 3.2 cm spiculated lesion with no evidence of distant spread.`, script[0].Content)
	require.Equal(t, "Based on these findings, I recommend platinum-based chemotherapy as first-line treatment.", script[1].Content)
	require.Equal(t, "Compared with the prior scan, the lesion has grown by about 4 mm.", script[2].Content)
	require.Contains(t, script[4].Content, "Radiologist and Medical Oncologist")
}

func TestGenerate_ExcerptTruncation(t *testing.T) {
	gen := consultation.NewGenerator(&sequenceRand{values: []int{0}}, consultation.WithExcerptLength(10))
	script := gen.Generate(pick(t, participant.Radiologist), "a very long   case description that keeps going")
	require.Contains(t, script[0].Content, `"a very lon..."`)
}
