package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tumorboard/internal/authz"
	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/panel"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/mcp"
	"github.com/rpggio/tumorboard/internal/playback"
	"github.com/rpggio/tumorboard/internal/sqlite"
	"github.com/rpggio/tumorboard/internal/transport"
	"github.com/stretchr/testify/require"
)

// Options tweaks the wiring of a TestServer.
type Options struct {
	// ReportRequiresAuth denies the report view to the anonymous tenant.
	ReportRequiresAuth bool
	// DisableAuth serves every request as the anonymous tenant.
	DisableAuth bool
	Seed        uint64
}

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Clock    *clock.Fake
	Panels   *panel.Service
	Activity *activity.Service
	Archive  *archive.Service
	Token    string
	TenantID string

	apiKeys *sqlite.APIKeyRepository
}

func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()
	return NewWithOptions(t, token, tenantID, Options{Seed: 1})
}

func NewWithOptions(t *testing.T, token, tenantID string, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	archiveSvc := archive.NewService(sqlite.NewArchiveRepository(db), nil)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	fake := clock.NewFake(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	panels := panel.NewService(panel.Deps{
		Catalog:  participant.DefaultCatalog(),
		Rand:     consultation.NewRand(opts.Seed),
		Clock:    fake,
		Timings:  playback.DefaultTimings(),
		Activity: activitySvc,
		Archive:  archiveSvc,
		Gate:     authz.NewGate(opts.ReportRequiresAuth, nil),
	})

	handler := mcp.NewHandler(panels, activitySvc, archiveSvc)
	auth := transport.AuthMiddleware(apiKeys)
	if opts.DisableAuth {
		auth = transport.DefaultTenantMiddleware(authz.AnonymousTenant)
	}
	router := transport.NewServer(handler, transport.Options{Runs: panels, Auth: auth})

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Panels:   panels,
			Activity: activitySvc,
			Archive:  archiveSvc,
		},
		Resolver:      apiKeys,
		AuthEnabled:   !opts.DisableAuth,
		TransportMode: "http",
	})
	router.Handle("/mcp", sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	))

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Clock:    fake,
		Panels:   panels,
		Activity: activitySvc,
		Archive:  archiveSvc,
		Token:    token,
		TenantID: tenantID,
		apiKeys:  apiKeys,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		panels.Shutdown()
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.apiKeys.Add(context.Background(), token, tenantID, "test key")
}

// FinishPlayback fires every pending playback timer.
func (ts *TestServer) FinishPlayback() time.Duration {
	return ts.Clock.RunAll()
}
