// Package orchestrator holds the panel state machine: Setup, Consultation and
// Report views over a single consultation run at a time.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
)

// Deps are the collaborators of an Orchestrator. Catalog, Analyzer,
// Generator and Scheduler are required.
type Deps struct {
	Catalog   *participant.Catalog
	Analyzer  *consultation.Analyzer
	Generator *consultation.Generator
	Scheduler *playback.Scheduler
	Clock     clock.Clock
	Gate      ReportGate
	Logger    *slog.Logger
	// OnRunComplete is called on the playback goroutine after a run's
	// listeners have seen completion. It must not call Orchestrator methods.
	OnRunComplete func(run *Run)
}

// Orchestrator owns the view state and the current run.
type Orchestrator struct {
	catalog   *participant.Catalog
	analyzer  *consultation.Analyzer
	generator *consultation.Generator
	scheduler *playback.Scheduler
	clock     clock.Clock
	gate      ReportGate
	logger    *slog.Logger
	onDone    func(run *Run)

	mu   sync.Mutex
	view View
	run  *Run
}

// New creates an orchestrator in the Setup view.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		catalog:   deps.Catalog,
		analyzer:  deps.Analyzer,
		generator: deps.Generator,
		scheduler: deps.Scheduler,
		clock:     deps.Clock,
		gate:      deps.Gate,
		logger:    deps.Logger,
		onDone:    deps.OnRunComplete,
		view:      ViewSetup,
	}
	if o.clock == nil {
		o.clock = clock.Real{}
	}
	if o.gate == nil {
		o.gate = allowAll{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// View returns the current view.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// CurrentRun returns the current run, or nil in Setup.
func (o *Orchestrator) CurrentRun() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run
}

// AnalyzeCase suggests participants for the case text.
func (o *Orchestrator) AnalyzeCase(caseText string) []participant.Participant {
	return o.analyzer.Suggest(caseText)
}

// StartRun moves from Setup to Consultation and starts playback. Participants
// not in the catalog are dropped. An empty selection still yields a run with
// the single no-participants turn. Listeners are registered before the first
// timer is scheduled.
func (o *Orchestrator) StartRun(participants []participant.Participant, caseText string, listeners ...Listener) (*Run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.view != ViewSetup {
		return nil, fmt.Errorf("start run from %s: %w", o.view, ErrInvalidTransition)
	}

	selected := o.catalog.Resolve(participant.IDs(participants))
	script := o.generator.Generate(selected, caseText)
	run := &Run{
		ID:           uuid.NewString(),
		CaseText:     caseText,
		Participants: selected,
		Script:       script,
		StartedAt:    o.clock.Now(),
		consensus:    consultation.Extract(script, selected),
		clock:        o.clock,
		status:       playback.StatusPlaying,
		listeners:    make(map[int]Listener),
		onDone:       o.onDone,
	}
	for _, l := range listeners {
		run.listeners[run.nextListener] = l
		run.nextListener++
	}
	run.playback = o.scheduler.New(script, run.callbacks())

	o.run = run
	o.view = ViewConsultation
	run.playback.Start()

	o.logger.Debug("consultation run started",
		"run_id", run.ID,
		"participants", participant.IDs(selected),
		"turns", len(script))
	return run, nil
}

// Consensus returns the current run's consensus once playback completed.
func (o *Orchestrator) Consensus() ([]consultation.ConsensusRecord, error) {
	run := o.CurrentRun()
	if run == nil {
		return nil, ErrNoRun
	}
	records, ok := run.Consensus()
	if !ok {
		return nil, ErrRunNotCompleted
	}
	return records, nil
}

// GoToReport moves from Consultation to Report once the run has completed and
// the report gate allows it. A gate denial is not an error.
func (o *Orchestrator) GoToReport(ctx context.Context) (Transition, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.view != ViewConsultation {
		return Transition{From: o.view, View: o.view}, fmt.Errorf("go to report from %s: %w", o.view, ErrInvalidTransition)
	}
	if o.run.Status() != playback.StatusCompleted {
		return Transition{From: o.view, View: o.view}, ErrRunNotCompleted
	}
	if !o.gate.AllowReport(ctx, o.run.ID) {
		o.logger.Info("report denied", "run_id", o.run.ID)
		return Transition{From: ViewConsultation, View: ViewConsultation, Denied: true}, nil
	}
	o.view = ViewReport
	return Transition{From: ViewConsultation, View: ViewReport}, nil
}

// GoToSetup returns to Setup from any view, cancelling and discarding the
// current run. It reports whether a playing run was cancelled.
func (o *Orchestrator) GoToSetup() (Transition, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	from := o.view
	cancelled := false
	if o.run != nil {
		cancelled = o.run.Cancel()
		if cancelled {
			o.logger.Debug("consultation run cancelled", "run_id", o.run.ID)
		}
	}
	o.run = nil
	o.view = ViewSetup
	return Transition{From: from, View: ViewSetup}, cancelled
}
