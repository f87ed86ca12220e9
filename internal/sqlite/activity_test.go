package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		PanelID:      "panel1",
		ActivityType: activity.TypePanelOpened,
		Summary:      "opened panel",
		CreatedAt:    base,
	}
	entry2 := &activity.ActivityEntry{
		PanelID:      "panel1",
		ActivityType: activity.TypeCaseAnalyzed,
		Summary:      "suggested 3 participants",
		Details:      `{"suggested":["oncologist"]}`,
		CreatedAt:    base.Add(time.Second),
	}

	require.NoError(t, repo.Log(ctx, "tenant1", entry1))
	require.NoError(t, repo.Log(ctx, "tenant1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "tenant1", entry1.TenantID)

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{PanelID: "panel1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry2.Details, entries[0].Details)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Empty(t, entries[1].Details)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{PanelID: "panel1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry1.ActivityType, entries[0].ActivityType)
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	runID := "run1"
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		PanelID:      "panel1",
		RunID:        &runID,
		ActivityType: activity.TypeRunStarted,
		Summary:      "started consultation",
	}))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		PanelID:      "panel1",
		ActivityType: activity.TypeReturnedToSetup,
		Summary:      "returned to setup",
	}))

	activityType := activity.TypeRunStarted
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{
		PanelID:      "panel1",
		RunID:        &runID,
		ActivityType: &activityType,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].RunID)
	require.Equal(t, runID, *entries[0].RunID)

	entries, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{PanelID: "panel1"})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}
