package orchestrator

import (
	"sync"
	"time"

	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
)

// Run is one consultation cycle. The script and consensus are fixed when the
// run is created; the transcript grows as playback emits turns.
type Run struct {
	ID           string
	CaseText     string
	Participants []participant.Participant
	Script       []consultation.Turn
	StartedAt    time.Time

	consensus []consultation.ConsensusRecord
	clock     clock.Clock
	playback  *playback.Playback
	onDone    func(run *Run)

	mu           sync.Mutex
	transcript   []consultation.Turn
	typing       string
	status       playback.Status
	completedAt  time.Time
	listeners    map[int]Listener
	nextListener int
}

// Subscribe registers l and returns a snapshot taken atomically with the
// registration, so no event falls between the two. Listeners run on the
// playback goroutine and must not call Cancel or any Orchestrator method.
func (r *Run) Subscribe(l Listener) (Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextListener
	r.nextListener++
	r.listeners[id] = l
	unsubscribe := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
	return r.snapshotLocked(), unsubscribe
}

// Cancel stops playback. It reports whether the run was playing.
func (r *Run) Cancel() bool {
	if !r.playback.Cancel() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = playback.StatusCancelled
	r.typing = ""
	return true
}

// Status returns the run's playback status.
func (r *Run) Status() playback.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Done is closed when the run completes or is cancelled.
func (r *Run) Done() <-chan struct{} {
	return r.playback.Done()
}

// Consensus returns the consensus records once the run has completed.
func (r *Run) Consensus() ([]consultation.ConsensusRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != playback.StatusCompleted {
		return nil, false
	}
	return r.consensus, true
}

// Transcript returns a copy of the turns emitted so far.
func (r *Run) Transcript() []consultation.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]consultation.Turn(nil), r.transcript...)
}

// Snapshot returns a copy of the run state.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Snapshot {
	snap := Snapshot{
		RunID:        r.ID,
		CaseText:     r.CaseText,
		Participants: append([]participant.Participant(nil), r.Participants...),
		Status:       r.status,
		Transcript:   append([]consultation.Turn{}, r.transcript...),
		TotalTurns:   len(r.Script),
		TypingID:     r.typing,
		StartedAt:    r.StartedAt,
	}
	if r.status == playback.StatusCompleted {
		snap.Consensus = r.consensus
		completed := r.completedAt
		snap.CompletedAt = &completed
	}
	return snap
}

func (r *Run) callbacks() playback.Callbacks {
	return playback.Callbacks{
		OnTyping: func(id string) {
			r.mu.Lock()
			r.typing = id
			listeners := r.listenersLocked()
			r.mu.Unlock()
			for _, l := range listeners {
				if l.OnTyping != nil {
					l.OnTyping(id)
				}
			}
		},
		OnTurn: func(turn consultation.Turn) {
			r.mu.Lock()
			r.transcript = append(r.transcript, turn)
			listeners := r.listenersLocked()
			r.mu.Unlock()
			for _, l := range listeners {
				if l.OnTurn != nil {
					l.OnTurn(turn)
				}
			}
		},
		OnComplete: func() {
			r.mu.Lock()
			r.status = playback.StatusCompleted
			r.typing = ""
			r.completedAt = r.clock.Now()
			listeners := r.listenersLocked()
			r.mu.Unlock()
			for _, l := range listeners {
				if l.OnComplete != nil {
					l.OnComplete()
				}
			}
			if r.onDone != nil {
				r.onDone(r)
			}
		},
	}
}

func (r *Run) listenersLocked() []Listener {
	out := make([]Listener, 0, len(r.listeners))
	for i := 0; i < r.nextListener; i++ {
		if l, ok := r.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}
