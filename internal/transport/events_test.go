package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/panel"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

type sseReader struct {
	scanner *bufio.Scanner
}

func (r *sseReader) next(t *testing.T) sseEvent {
	t.Helper()
	var ev sseEvent
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			return ev
		}
	}
	require.NoError(t, r.scanner.Err())
	t.Fatal("stream ended before the next event")
	return ev
}

type streamFixture struct {
	svc     *panel.Service
	fake    *clock.Fake
	server  *httptest.Server
	panelID string
	run     *orchestrator.Run
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	ctx := context.Background()
	fake := clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := panel.NewService(panel.Deps{
		Catalog: participant.DefaultCatalog(),
		Rand:    consultation.NewRand(3),
		Clock:   fake,
		Timings: playback.DefaultTimings(),
	})
	t.Cleanup(svc.Shutdown)

	state, err := svc.OpenPanel(ctx, "default")
	require.NoError(t, err)
	_, err = svc.StartConsultation(ctx, "default", panel.StartRequest{
		PanelID:        state.PanelID,
		ParticipantIDs: []string{participant.Oncologist, participant.Surgeon},
		CaseText:       "Resectable pancreatic mass",
	})
	require.NoError(t, err)
	run, err := svc.Run(ctx, "default", state.PanelID)
	require.NoError(t, err)

	server := httptest.NewServer(NewServer(&testHandler{}, Options{
		Runs: svc,
		Auth: DefaultTenantMiddleware("default"),
	}))
	t.Cleanup(server.Close)

	return &streamFixture{svc: svc, fake: fake, server: server, panelID: state.PanelID, run: run}
}

func (f *streamFixture) open(t *testing.T) *sseReader {
	t.Helper()
	resp, err := http.Get(f.server.URL + "/panels/" + f.panelID + "/events")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return &sseReader{scanner: bufio.NewScanner(resp.Body)}
}

func TestEvents_StreamsRunToCompletion(t *testing.T) {
	f := newStreamFixture(t)
	stream := f.open(t)

	first := stream.next(t)
	require.Equal(t, EventSnapshot, first.name)
	var snap orchestrator.Snapshot
	require.NoError(t, json.Unmarshal([]byte(first.data), &snap))
	require.Equal(t, f.run.ID, snap.RunID)
	require.Empty(t, snap.Transcript)

	f.fake.RunAll()

	var turns []consultation.Turn
	sawComplete := false
	for {
		ev := stream.next(t)
		if ev.name == EventEnd {
			require.Contains(t, ev.data, `"completed"`)
			break
		}
		switch ev.name {
		case EventTurn:
			var turn consultation.Turn
			require.NoError(t, json.Unmarshal([]byte(ev.data), &turn))
			turns = append(turns, turn)
		case EventComplete:
			sawComplete = true
		case EventTyping:
		default:
			t.Fatalf("unexpected event %q", ev.name)
		}
	}
	require.True(t, sawComplete)
	require.Equal(t, f.run.Script, turns)
}

func TestEvents_CancelEndsStream(t *testing.T) {
	f := newStreamFixture(t)
	stream := f.open(t)
	require.Equal(t, EventSnapshot, stream.next(t).name)

	f.fake.Advance(5 * time.Second)
	_, err := f.svc.GoToSetup(context.Background(), "default", f.panelID)
	require.NoError(t, err)

	for {
		ev := stream.next(t)
		require.NotEqual(t, EventComplete, ev.name)
		if ev.name == EventEnd {
			require.Contains(t, ev.data, `"cancelled"`)
			return
		}
	}
}

func TestEvents_UnknownPanel(t *testing.T) {
	f := newStreamFixture(t)

	resp, err := http.Get(f.server.URL + "/panels/missing/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
