package panel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/tumorboard/internal/authz"
	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/panel"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
	"github.com/rpggio/tumorboard/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type activityLog struct {
	mu      sync.Mutex
	entries []activity.ActivityEntry
}

func (l *activityLog) LogActivity(_ context.Context, _ string, entry *activity.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *activityLog) types() []activity.ActivityType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]activity.ActivityType, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.ActivityType)
	}
	return out
}

type fixture struct {
	svc     *panel.Service
	clk     *clock.Fake
	log     *activityLog
	archive *mocks.ArchiveRepository
}

func newFixture(t *testing.T, gate panel.ReportGate) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	log := &activityLog{}
	repo := &mocks.ArchiveRepository{}
	svc := panel.NewService(panel.Deps{
		Catalog:  participant.DefaultCatalog(),
		Rand:     consultation.NewRand(1),
		Clock:    clk,
		Timings:  playback.DefaultTimings(),
		Activity: log,
		Archive:  archive.NewService(repo, nil),
		Gate:     gate,
	})
	return &fixture{svc: svc, clk: clk, log: log, archive: repo}
}

func TestService_FullConsultation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.NewGate(false, nil))

	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewSetup, st.View)
	require.Nil(t, st.Run)

	analysis, err := f.svc.AnalyzeCase(ctx, "tenant1", st.PanelID, "55-year-old with a lung mass")
	require.NoError(t, err)
	require.Equal(t, []string{participant.Oncologist, participant.Radiologist}, analysis.InitialSelection)
	require.Subset(t, participant.IDs(analysis.Suggestions), []string{participant.Pulmonologist})

	started, err := f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: analysis.InitialSelection,
		CaseText:       "55-year-old with a lung mass",
	})
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewConsultation, started.View)
	require.NotNil(t, started.Run)
	require.Equal(t, playback.StatusPlaying, started.Run.Status)

	_, err = f.svc.Consensus(ctx, "tenant1", st.PanelID)
	require.ErrorIs(t, err, orchestrator.ErrRunNotCompleted)

	f.archive.On("Save", mock.Anything, "tenant1", mock.MatchedBy(func(run *archive.ArchivedRun) bool {
		return run.ID == started.Run.RunID &&
			run.PanelID == st.PanelID &&
			len(run.Transcript) == started.Run.TotalTurns &&
			len(run.Consensus) > 0
	})).Return(nil).Once()
	f.clk.RunAll()
	f.archive.AssertExpectations(t)

	records, err := f.svc.Consensus(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	tr, err := f.svc.GoToReport(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewReport, tr.View)

	tr, err = f.svc.GoToSetup(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewReport, tr.From)

	require.Equal(t, []activity.ActivityType{
		activity.TypePanelOpened,
		activity.TypeCaseAnalyzed,
		activity.TypeRunStarted,
		activity.TypeRunCompleted,
		activity.TypeReportOpened,
		activity.TypeReturnedToSetup,
	}, f.log.types())
}

func TestService_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)

	_, err = f.svc.GetPanel(ctx, "tenant2", st.PanelID)
	require.ErrorIs(t, err, panel.ErrPanelNotFound)
	_, err = f.svc.GetPanel(ctx, "tenant1", "")
	require.ErrorIs(t, err, panel.ErrInvalidInput)
	_, err = f.svc.OpenPanel(ctx, "")
	require.ErrorIs(t, err, panel.ErrInvalidInput)
}

func TestService_StartConsultationSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)

	_, err = f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{PanelID: st.PanelID, CaseText: "x"})
	require.ErrorIs(t, err, panel.ErrEmptySelection)

	started, err := f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{"astrologer", " surgeon ", "surgeon"},
		CaseText:       "resection",
	})
	require.NoError(t, err)
	require.Equal(t, []string{participant.Surgeon}, participant.IDs(started.Run.Participants))

	_, err = f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{participant.Oncologist},
	})
	require.ErrorIs(t, err, orchestrator.ErrInvalidTransition)
}

func TestService_UnknownOnlySelectionPlaysDegenerateScript(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)

	started, err := f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{"astrologer"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, started.Run.TotalTurns)

	f.archive.On("Save", mock.Anything, "tenant1", mock.Anything).Return(nil)
	f.clk.RunAll()

	records, err := f.svc.Consensus(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, consultation.TopicGeneral, records[0].Topic)
	require.Empty(t, records[0].Participants)
}

func TestService_ReportDeniedForAnonymousTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.NewGate(true, nil))
	f.archive.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	st, err := f.svc.OpenPanel(ctx, authz.AnonymousTenant)
	require.NoError(t, err)
	_, err = f.svc.StartConsultation(ctx, authz.AnonymousTenant, panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{participant.Oncologist},
		CaseText:       "tumor",
	})
	require.NoError(t, err)
	f.clk.RunAll()

	tr, err := f.svc.GoToReport(ctx, authz.AnonymousTenant, st.PanelID)
	require.NoError(t, err)
	require.True(t, tr.Denied)

	got, err := f.svc.GetPanel(ctx, authz.AnonymousTenant, st.PanelID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewConsultation, got.View)
	require.Contains(t, f.log.types(), activity.TypeReportDenied)
}

func TestService_GoToSetupCancelsPlayingRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)

	_, err = f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{participant.Oncologist, participant.Radiologist},
		CaseText:       "mass",
	})
	require.NoError(t, err)
	run, err := f.svc.Run(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)

	f.clk.Advance(time.Second)
	tr, err := f.svc.GoToSetup(ctx, "tenant1", st.PanelID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.ViewConsultation, tr.From)
	require.Equal(t, playback.StatusCancelled, run.Status())

	f.clk.RunAll()
	f.archive.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.svc.Run(ctx, "tenant1", st.PanelID)
	require.ErrorIs(t, err, panel.ErrRunNotFound)
	_, err = f.svc.Consensus(ctx, "tenant1", st.PanelID)
	require.ErrorIs(t, err, panel.ErrRunNotFound)

	types := f.log.types()
	require.Equal(t, []activity.ActivityType{
		activity.TypePanelOpened,
		activity.TypeRunStarted,
		activity.TypeRunCancelled,
		activity.TypeReturnedToSetup,
	}, types)
}

func TestService_ClosePanel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	st, err := f.svc.OpenPanel(ctx, "tenant1")
	require.NoError(t, err)

	_, err = f.svc.StartConsultation(ctx, "tenant1", panel.StartRequest{
		PanelID:        st.PanelID,
		ParticipantIDs: []string{participant.Pathologist},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.ClosePanel(ctx, "tenant1", st.PanelID))
	require.Zero(t, f.clk.Pending())
	_, err = f.svc.GetPanel(ctx, "tenant1", st.PanelID)
	require.ErrorIs(t, err, panel.ErrPanelNotFound)
}
