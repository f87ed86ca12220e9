// Package playback plays a consultation script one turn at a time with a
// typing phase before each turn. All waits go through an injected clock.
package playback

import (
	"sync"
	"time"

	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
)

// Status is the lifecycle state of a Playback.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Timings controls pacing. Participant turns wait a uniformly jittered
// thinking time in [ThinkingMin, ThinkingMax] before they are emitted.
type Timings struct {
	SystemTyping      time.Duration
	ParticipantTyping time.Duration
	SystemEmit        time.Duration
	ThinkingMin       time.Duration
	ThinkingMax       time.Duration
}

// DefaultTimings returns the standard pacing.
func DefaultTimings() Timings {
	return Timings{
		SystemTyping:      500 * time.Millisecond,
		ParticipantTyping: 700 * time.Millisecond,
		SystemEmit:        1500 * time.Millisecond,
		ThinkingMin:       1200 * time.Millisecond,
		ThinkingMax:       3000 * time.Millisecond,
	}
}

// MaxTurnDuration is the longest a single turn can take to play.
func (t Timings) MaxTurnDuration() time.Duration {
	return max(t.SystemTyping+t.SystemEmit, t.ParticipantTyping+t.ThinkingMax)
}

// Callbacks receive playback events. Any field may be nil.
//
// Callbacks are delivered one at a time while the Playback is locked, so they
// must not call methods on the Playback that invoked them.
type Callbacks struct {
	// OnTyping reports who is typing. An empty id clears the indicator.
	OnTyping   func(participantID string)
	OnTurn     func(turn consultation.Turn)
	OnComplete func()
}

// Scheduler creates playbacks that share a clock, randomness and timings.
type Scheduler struct {
	clock   clock.Clock
	rng     consultation.Rand
	timings Timings
}

// NewScheduler creates a scheduler. A nil clock uses the wall clock.
func NewScheduler(clk clock.Clock, rng consultation.Rand, timings Timings) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if rng == nil {
		rng = consultation.NewRand(0)
	}
	return &Scheduler{clock: clk, rng: rng, timings: timings}
}

// Start plays script and returns the handle used to observe or cancel it.
func (s *Scheduler) Start(script []consultation.Turn, cb Callbacks) *Playback {
	p := s.New(script, cb)
	p.Start()
	return p
}

// New prepares an idle playback of script.
func (s *Scheduler) New(script []consultation.Turn, cb Callbacks) *Playback {
	return &Playback{
		scheduler: s,
		script:    append([]consultation.Turn(nil), script...),
		cb:        cb,
		status:    StatusIdle,
		done:      make(chan struct{}),
	}
}

type phase int

const (
	phaseTyping phase = iota
	phaseEmit
)

// Playback is one run of the scheduler over a script. It holds at most one
// pending timer at any time.
type Playback struct {
	scheduler *Scheduler
	script    []consultation.Turn
	cb        Callbacks

	// mu guards the fields below and is held while callbacks run, so that
	// Cancel returning means no callback is running or will run.
	mu      sync.Mutex
	status  Status
	index   int
	timer   clock.Timer
	token   uint64
	emitted int
	done    chan struct{}
}

// Start moves an idle playback to Playing and schedules the first wait. It
// reports false if the playback was not idle.
func (p *Playback) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusIdle {
		return false
	}
	p.status = StatusPlaying
	if len(p.script) == 0 {
		p.schedule(0, p.finish)
		return true
	}
	p.schedule(p.typingDelay(p.script[0]), p.typing)
	return true
}

// Cancel stops a playing playback. No callback fires after Cancel returns.
// It reports whether this call cancelled the playback.
func (p *Playback) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying {
		return false
	}
	p.status = StatusCancelled
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	close(p.done)
	return true
}

// Status returns the current lifecycle state.
func (p *Playback) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Emitted returns how many turns have been delivered to OnTurn.
func (p *Playback) Emitted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.emitted
}

// Done is closed when the playback completes or is cancelled.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// schedule replaces the pending timer. Callers hold p.mu.
func (p *Playback) schedule(d time.Duration, step func()) {
	p.token++
	token := p.token
	p.timer = p.scheduler.clock.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// A real timer may fire after Stop lost the race; the token and
		// status checks drop those late callbacks.
		if p.status != StatusPlaying || token != p.token {
			return
		}
		p.timer = nil
		step()
	})
}

func (p *Playback) typing() {
	turn := p.script[p.index]
	if turn.IsSystem() {
		p.notifyTyping("")
	} else {
		p.notifyTyping(turn.ParticipantID)
	}
	p.schedule(p.emitDelay(turn), p.emit)
}

func (p *Playback) emit() {
	turn := p.script[p.index]
	if p.cb.OnTurn != nil {
		p.cb.OnTurn(turn)
	}
	p.emitted++
	if !turn.IsSystem() {
		p.notifyTyping("")
	}
	p.index++
	if p.index >= len(p.script) {
		p.finish()
		return
	}
	p.schedule(p.typingDelay(p.script[p.index]), p.typing)
}

func (p *Playback) finish() {
	p.status = StatusCompleted
	if p.cb.OnComplete != nil {
		p.cb.OnComplete()
	}
	close(p.done)
}

func (p *Playback) notifyTyping(id string) {
	if p.cb.OnTyping != nil {
		p.cb.OnTyping(id)
	}
}

func (p *Playback) typingDelay(turn consultation.Turn) time.Duration {
	if turn.IsSystem() {
		return p.scheduler.timings.SystemTyping
	}
	return p.scheduler.timings.ParticipantTyping
}

func (p *Playback) emitDelay(turn consultation.Turn) time.Duration {
	t := p.scheduler.timings
	if turn.IsSystem() {
		return t.SystemEmit
	}
	spread := t.ThinkingMax - t.ThinkingMin
	if spread <= 0 {
		return t.ThinkingMin
	}
	return t.ThinkingMin + time.Duration(p.scheduler.rng.Int64N(int64(spread)+1))
}
