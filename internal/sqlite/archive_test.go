package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func newArchivedRun(id, panelID string, completedAt time.Time) *archive.ArchivedRun {
	return &archive.ArchivedRun{
		ID:             id,
		PanelID:        panelID,
		CaseText:       "55-year-old with a lung mass",
		ParticipantIDs: []string{"oncologist", "radiologist"},
		Transcript: []consultation.Turn{
			{ParticipantID: "radiologist", Content: "The CT scan shows a lesion."},
			{ParticipantID: "oncologist", Content: "Agreed?", Kind: consultation.KindConsensusPoll},
			{ParticipantID: consultation.SystemParticipantID, Content: "Summary.", Kind: consultation.KindSummary},
		},
		Consensus: []consultation.ConsensusRecord{{
			Topic:      consultation.TopicImaging,
			Status:     consultation.StatusDiscussed,
			DetailText: "The CT scan shows a lesion.",
			Participants: []consultation.ConsensusParticipant{
				{ID: "radiologist", Color: "#2563EB", Initials: "RA"},
			},
		}},
		StartedAt:   completedAt.Add(-time.Minute),
		CompletedAt: completedAt,
	}
}

func TestArchiveRepository_SaveGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewArchiveRepository(db)

	run := newArchivedRun("run1", "panel1", time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, "tenant1", run))

	got, err := repo.Get(ctx, "tenant1", "run1")
	require.NoError(t, err)
	require.Equal(t, "tenant1", got.TenantID)
	require.Equal(t, run.ParticipantIDs, got.ParticipantIDs)
	require.Equal(t, run.Transcript, got.Transcript)
	require.Equal(t, run.Consensus, got.Consensus)
	require.True(t, run.CompletedAt.Equal(got.CompletedAt))

	_, err = repo.Get(ctx, "tenant2", "run1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Save(ctx, "tenant1", run), repository.ErrConflict)
}

func TestArchiveRepository_List(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewArchiveRepository(db)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, "tenant1", newArchivedRun("old", "panel1", base)))
	require.NoError(t, repo.Save(ctx, "tenant1", newArchivedRun("new", "panel1", base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, "tenant1", newArchivedRun("other", "panel2", base.Add(30*time.Minute))))

	runs, err := repo.List(ctx, "tenant1", archive.ListOptions{PanelID: "panel1"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "new", runs[0].ID)
	require.Equal(t, "old", runs[1].ID)

	runs, err = repo.List(ctx, "tenant1", archive.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "new", runs[0].ID)

	runs, err = repo.List(ctx, "tenant2", archive.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, runs)
}
