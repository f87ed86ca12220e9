package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
)

// Deps holds the collaborators of a Service. Catalog is required; Activity,
// Archive and Gate are optional.
type Deps struct {
	Catalog       *participant.Catalog
	Rand          consultation.Rand
	Clock         clock.Clock
	Timings       playback.Timings
	ExcerptLength int
	Activity      ActivityLogger
	Archive       Archiver
	Gate          ReportGate
	Logger        *slog.Logger
}

// Service manages panels for all tenants.
type Service struct {
	catalog   *participant.Catalog
	analyzer  *consultation.Analyzer
	generator *consultation.Generator
	scheduler *playback.Scheduler
	clock     clock.Clock
	activity  ActivityLogger
	archive   Archiver
	gate      ReportGate
	logger    *slog.Logger

	mu     sync.Mutex
	panels map[string]*panelEntry
}

type panelEntry struct {
	id        string
	tenantID  string
	createdAt time.Time
	orch      *orchestrator.Orchestrator
}

// NewService creates a new panel service.
func NewService(deps Deps) *Service {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	rng := deps.Rand
	if rng == nil {
		rng = consultation.NewRand(0)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var genOpts []consultation.GeneratorOption
	if deps.ExcerptLength > 0 {
		genOpts = append(genOpts, consultation.WithExcerptLength(deps.ExcerptLength))
	}
	return &Service{
		catalog:   deps.Catalog,
		analyzer:  consultation.NewAnalyzer(deps.Catalog),
		generator: consultation.NewGenerator(rng, genOpts...),
		scheduler: playback.NewScheduler(clk, rng, deps.Timings),
		clock:     clk,
		activity:  deps.Activity,
		archive:   deps.Archive,
		gate:      deps.Gate,
		logger:    logger,
		panels:    make(map[string]*panelEntry),
	}
}

// Catalog returns the participant catalog.
func (s *Service) Catalog() *participant.Catalog {
	return s.catalog
}

// OpenPanel creates a panel in the Setup view.
func (s *Service) OpenPanel(ctx context.Context, tenantID string) (*State, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	entry := &panelEntry{
		id:        uuid.NewString(),
		tenantID:  tenantID,
		createdAt: s.clock.Now(),
	}
	entry.orch = orchestrator.New(orchestrator.Deps{
		Catalog:   s.catalog,
		Analyzer:  s.analyzer,
		Generator: s.generator,
		Scheduler: s.scheduler,
		Clock:     s.clock,
		Gate:      s.reportGate(tenantID),
		Logger:    s.logger.With("panel_id", entry.id),
		OnRunComplete: func(run *orchestrator.Run) {
			s.runCompleted(tenantID, entry.id, run)
		},
	})

	s.mu.Lock()
	s.panels[panelKey(tenantID, entry.id)] = entry
	s.mu.Unlock()

	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		PanelID:      entry.id,
		ActivityType: activity.TypePanelOpened,
		Summary:      "opened panel",
	})
	s.logger.Info("panel opened", "tenant_id", tenantID, "panel_id", entry.id)
	return entry.state(), nil
}

// GetPanel returns the panel's view and a snapshot of its current run.
func (s *Service) GetPanel(ctx context.Context, tenantID, panelID string) (*State, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return nil, err
	}
	return entry.state(), nil
}

// AnalyzeCase suggests participants for a case.
func (s *Service) AnalyzeCase(ctx context.Context, tenantID, panelID, caseText string) (*AnalyzeResult, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return nil, err
	}
	suggestions := entry.orch.AnalyzeCase(caseText)
	result := &AnalyzeResult{
		Suggestions:      suggestions,
		InitialSelection: participant.IDs(consultation.InitialSelection(suggestions)),
	}
	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		PanelID:      panelID,
		ActivityType: activity.TypeCaseAnalyzed,
		Summary:      fmt.Sprintf("suggested %d participants", len(suggestions)),
		Details:      detailsJSON(map[string]any{"suggested": participant.IDs(suggestions)}),
	})
	return result, nil
}

// StartConsultation starts a run from the Setup view. Unknown participant ids
// are dropped; an empty request is rejected.
func (s *Service) StartConsultation(ctx context.Context, tenantID string, req StartRequest) (*State, error) {
	if len(req.ParticipantIDs) == 0 {
		return nil, ErrEmptySelection
	}
	entry, err := s.lookup(tenantID, req.PanelID)
	if err != nil {
		return nil, err
	}

	selection := make([]participant.Participant, 0, len(req.ParticipantIDs))
	for _, id := range req.ParticipantIDs {
		selection = append(selection, s.catalog.Lookup(strings.TrimSpace(id)))
	}

	run, err := entry.orch.StartRun(selection, req.CaseText)
	if err != nil {
		return nil, fmt.Errorf("starting consultation: %w", err)
	}

	runID := run.ID
	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		PanelID:      entry.id,
		RunID:        &runID,
		ActivityType: activity.TypeRunStarted,
		Summary:      fmt.Sprintf("started consultation with %d participants", len(run.Participants)),
		Details: detailsJSON(map[string]any{
			"participants": participant.IDs(run.Participants),
			"turns":        len(run.Script),
		}),
	})
	s.logger.Info("consultation started",
		"tenant_id", tenantID,
		"panel_id", entry.id,
		"run_id", run.ID,
		"participants", participant.IDs(run.Participants))
	return entry.state(), nil
}

// Consensus returns the consensus of the panel's completed run.
func (s *Service) Consensus(ctx context.Context, tenantID, panelID string) ([]consultation.ConsensusRecord, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return nil, err
	}
	records, err := entry.orch.Consensus()
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoRun) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return records, nil
}

// Run returns the panel's current run.
func (s *Service) Run(ctx context.Context, tenantID, panelID string) (*orchestrator.Run, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return nil, err
	}
	run := entry.orch.CurrentRun()
	if run == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// GoToReport asks to open the report view. A denial is returned in the
// transition, not as an error.
func (s *Service) GoToReport(ctx context.Context, tenantID, panelID string) (orchestrator.Transition, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return orchestrator.Transition{}, err
	}
	tr, err := entry.orch.GoToReport(ctx)
	if err != nil {
		return tr, err
	}

	var runID *string
	if run := entry.orch.CurrentRun(); run != nil {
		id := run.ID
		runID = &id
	}
	if tr.Denied {
		s.logActivity(ctx, tenantID, &activity.ActivityEntry{
			PanelID:      panelID,
			RunID:        runID,
			ActivityType: activity.TypeReportDenied,
			Summary:      "report access denied",
		})
		return tr, nil
	}
	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		PanelID:      panelID,
		RunID:        runID,
		ActivityType: activity.TypeReportOpened,
		Summary:      "opened consensus report",
	})
	return tr, nil
}

// GoToSetup returns the panel to Setup, cancelling any playing run.
func (s *Service) GoToSetup(ctx context.Context, tenantID, panelID string) (orchestrator.Transition, error) {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return orchestrator.Transition{}, err
	}
	var runID *string
	if run := entry.orch.CurrentRun(); run != nil {
		id := run.ID
		runID = &id
	}

	tr, cancelled := entry.orch.GoToSetup()
	if cancelled {
		s.logActivity(ctx, tenantID, &activity.ActivityEntry{
			PanelID:      panelID,
			RunID:        runID,
			ActivityType: activity.TypeRunCancelled,
			Summary:      "cancelled consultation mid-playback",
		})
	}
	if tr.From != orchestrator.ViewSetup {
		s.logActivity(ctx, tenantID, &activity.ActivityEntry{
			PanelID:      panelID,
			RunID:        runID,
			ActivityType: activity.TypeReturnedToSetup,
			Summary:      fmt.Sprintf("returned to setup from %s", tr.From),
		})
	}
	return tr, nil
}

// ClosePanel cancels the panel's run and forgets the panel.
func (s *Service) ClosePanel(ctx context.Context, tenantID, panelID string) error {
	entry, err := s.lookup(tenantID, panelID)
	if err != nil {
		return err
	}
	entry.orch.GoToSetup()

	s.mu.Lock()
	delete(s.panels, panelKey(tenantID, panelID))
	s.mu.Unlock()
	return nil
}

// Shutdown cancels every playing run.
func (s *Service) Shutdown() {
	s.mu.Lock()
	entries := make([]*panelEntry, 0, len(s.panels))
	for _, entry := range s.panels {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		if run := entry.orch.CurrentRun(); run != nil {
			run.Cancel()
		}
	}
}

// runCompleted runs on the playback goroutine once a run finishes.
func (s *Service) runCompleted(tenantID, panelID string, run *orchestrator.Run) {
	ctx := context.Background()
	snap := run.Snapshot()
	runID := run.ID

	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		PanelID:      panelID,
		RunID:        &runID,
		ActivityType: activity.TypeRunCompleted,
		Summary:      fmt.Sprintf("consultation completed with %d consensus topics", len(snap.Consensus)),
	})

	if s.archive == nil {
		return
	}
	completedAt := s.clock.Now()
	if snap.CompletedAt != nil {
		completedAt = *snap.CompletedAt
	}
	err := s.archive.Save(ctx, tenantID, &archive.ArchivedRun{
		ID:             run.ID,
		TenantID:       tenantID,
		PanelID:        panelID,
		CaseText:       snap.CaseText,
		ParticipantIDs: participant.IDs(snap.Participants),
		Transcript:     snap.Transcript,
		Consensus:      snap.Consensus,
		StartedAt:      snap.StartedAt,
		CompletedAt:    completedAt,
	})
	if err != nil {
		s.logger.Warn("failed to archive run", "run_id", run.ID, "error", err)
	}
}

func (s *Service) reportGate(tenantID string) orchestrator.ReportGate {
	if s.gate == nil {
		return nil
	}
	return orchestrator.ReportGateFunc(func(ctx context.Context, runID string) bool {
		return s.gate.AllowReport(ctx, tenantID, runID)
	})
}

func (s *Service) lookup(tenantID, panelID string) (*panelEntry, error) {
	if panelID == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.panels[panelKey(tenantID, panelID)]
	if !ok {
		return nil, ErrPanelNotFound
	}
	return entry, nil
}

func (s *Service) logActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.LogActivity(ctx, tenantID, entry); err != nil {
		s.logger.Warn("failed to log activity", "type", entry.ActivityType, "error", err)
	}
}

func (e *panelEntry) state() *State {
	st := &State{
		PanelID:   e.id,
		View:      e.orch.View(),
		CreatedAt: e.createdAt,
	}
	if run := e.orch.CurrentRun(); run != nil {
		snap := run.Snapshot()
		st.Run = &snap
	}
	return st
}

func panelKey(tenantID, panelID string) string {
	return tenantID + "/" + panelID
}

func detailsJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
