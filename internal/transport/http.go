package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, boundPanelID, method string, params json.RawMessage) (any, error)
}

// apiError is implemented by coded domain errors from the MCP layer.
type apiError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	runs    RunSource
	logger  *slog.Logger
}

// Options configures the router. Runs may be nil, which disables the event
// stream.
type Options struct {
	Runs   RunSource
	Auth   func(http.Handler) http.Handler
	Logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware. /health is public;
// every other route requires a tenant in the request context.
func NewServer(handler MCPHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{handler: handler, runs: opts.Runs, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Use(PanelBindingMiddleware)

		r.Post("/rpc", srv.handleRPC)
		if srv.runs != nil {
			r.Get("/panels/{panelID}/events", srv.handleEvents)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, req.ID, parseErrorCode(err), err.Error(), nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	boundPanelID, _ := BoundPanelFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), tenantID, boundPanelID, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var coded apiError
		if errors.As(err, &coded) {
			WriteError(w, req.ID, RPCCode(coded.CodeValue()), coded.MessageValue(), map[string]any{
				"code":          coded.CodeValue(),
				"details":       coded.DetailsValue(),
				"recovery_hint": coded.RecoveryHintValue(),
			})
			return
		}
		s.logger.Warn("rpc failed", "method", req.Method, "tenant_id", tenantID, "error", err)
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(w, req.ID, result)
}
