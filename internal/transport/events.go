package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/panel"
)

// RunSource returns the current run of a panel.
type RunSource interface {
	Run(ctx context.Context, tenantID, panelID string) (*orchestrator.Run, error)
}

// Event names on the run stream.
const (
	EventSnapshot = "snapshot"
	EventTyping   = "typing"
	EventTurn     = "turn"
	EventComplete = "complete"
	EventEnd      = "end"
)

type streamEvent struct {
	name string
	data any
}

// eventQueue buffers listener callbacks so the playback goroutine never
// blocks on a slow client.
type eventQueue struct {
	mu     sync.Mutex
	events []streamEvent
	notify chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(name string, data any) {
	q.mu.Lock()
	q.events = append(q.events, streamEvent{name: name, data: data})
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []streamEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// handleEvents streams a run as Server-Sent Events. The stream opens with a
// snapshot, then relays typing, turn and complete events, and closes with an
// end event once the run completes or is cancelled.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}
	panelID := chi.URLParam(r, "panelID")

	run, err := s.runs.Run(r.Context(), tenantID, panelID)
	if err != nil {
		switch {
		case errors.Is(err, panel.ErrPanelNotFound), errors.Is(err, panel.ErrRunNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	queue := newEventQueue()
	snapshot, unsubscribe := run.Subscribe(orchestrator.Listener{
		OnTyping: func(id string) {
			queue.push(EventTyping, map[string]string{"participant_id": id})
		},
		OnTurn: func(turn consultation.Turn) {
			queue.push(EventTurn, turn)
		},
		OnComplete: func() {
			queue.push(EventComplete, nil)
		},
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, EventSnapshot, snapshot); err != nil {
		return
	}
	flusher.Flush()

	logger := s.logger.With("panel_id", panelID, "run_id", run.ID)
	logger.Debug("event stream opened")
	for {
		select {
		case <-r.Context().Done():
			logger.Debug("event stream closed by client")
			return
		case <-queue.notify:
			if err := writeEvents(w, queue.drain()); err != nil {
				return
			}
			flusher.Flush()
		case <-run.Done():
			if err := writeEvents(w, queue.drain()); err != nil {
				return
			}
			_ = writeEvent(w, EventEnd, map[string]any{"status": run.Status()})
			flusher.Flush()
			logger.Debug("event stream ended", "status", run.Status())
			return
		}
	}
}

func writeEvents(w http.ResponseWriter, events []streamEvent) error {
	for _, ev := range events {
		if err := writeEvent(w, ev.name, ev.data); err != nil {
			return err
		}
	}
	return nil
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	payload := []byte("{}")
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", name, err)
		}
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
