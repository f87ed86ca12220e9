package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tumorboard/internal/authz"
	"github.com/rpggio/tumorboard/internal/config"
	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/panel"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/logging"
	"github.com/rpggio/tumorboard/internal/mcp"
	"github.com/rpggio/tumorboard/internal/playback"
	"github.com/rpggio/tumorboard/internal/sqlite"
	"github.com/rpggio/tumorboard/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("TUMORBOARD_LOG_PATH"); logPath != "" {
		file, err := logging.OpenRotatingFile(logPath, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := logging.New(logWriter, cfg.Log.Level)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Error("failed to load participant catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	services := mcp.Services{Activity: activitySvc}
	panelDeps := panel.Deps{
		Catalog: catalog,
		Rand:    consultation.NewRand(cfg.Panel.Seed),
		Timings: playback.Timings{
			SystemTyping:      cfg.Panel.SystemTypingDelay,
			ParticipantTyping: cfg.Panel.ParticipantTypingDelay,
			SystemEmit:        cfg.Panel.SystemEmitDelay,
			ThinkingMin:       cfg.Panel.ThinkingMin,
			ThinkingMax:       cfg.Panel.ThinkingMax,
		},
		ExcerptLength: cfg.Panel.ExcerptLength,
		Activity:      activitySvc,
		Gate:          authz.NewGate(cfg.Auth.ReportRequiresAuth, logger),
		Logger:        logger,
	}
	if cfg.Panel.ArchiveRuns {
		archiveSvc := archive.NewService(sqlite.NewArchiveRepository(db), logger)
		panelDeps.Archive = archiveSvc
		services.Archive = archiveSvc
	}
	panelSvc := panel.NewService(panelDeps)
	defer panelSvc.Shutdown()
	services.Panels = panelSvc

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      apiKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	logger.Info("panel configured",
		"participants", len(catalog.All()),
		"archive", cfg.Panel.ArchiveRuns,
		"report_requires_auth", cfg.Auth.ReportRequiresAuth)

	// Branch based on transport mode
	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	auth := transport.DefaultTenantMiddleware(authz.AnonymousTenant)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(apiKeys)
	}
	router := transport.NewServer(mcp.NewHandler(services.Panels, services.Activity, services.Archive), transport.Options{
		Runs:   panelSvc,
		Auth:   auth,
		Logger: logger,
	})
	runHTTPMode(logger, mcpServer, router, cfg.Server.Host, cfg.Server.Port)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	transport := &sdkmcp.StdioTransport{}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, transport); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
	}
}

// runHTTPMode serves the streamable MCP endpoint next to the JSON-RPC and
// event stream routes.
func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, router chiRouter, host string, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

type chiRouter interface {
	http.Handler
	Handle(pattern string, h http.Handler)
}

func loadCatalog(path string) (*participant.Catalog, error) {
	if path == "" {
		return participant.DefaultCatalog(), nil
	}
	return participant.LoadFile(path)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
