// Package authz decides whether a tenant may open a consultation report.
package authz

import (
	"context"
	"log/slog"
)

// AnonymousTenant is the tenant assigned when authentication is disabled.
const AnonymousTenant = "default"

// Gate is the report authorization policy.
type Gate struct {
	reportRequiresAuth bool
	logger             *slog.Logger
}

// NewGate creates a gate. When reportRequiresAuth is set, the anonymous
// tenant may watch consultations but not open their reports.
func NewGate(reportRequiresAuth bool, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{reportRequiresAuth: reportRequiresAuth, logger: logger}
}

// AllowReport reports whether tenantID may open the report for runID.
func (g *Gate) AllowReport(ctx context.Context, tenantID, runID string) bool {
	if tenantID == "" {
		g.logger.WarnContext(ctx, "report denied: missing tenant", "run_id", runID)
		return false
	}
	if g.reportRequiresAuth && tenantID == AnonymousTenant {
		g.logger.InfoContext(ctx, "report denied: authentication required", "run_id", runID)
		return false
	}
	return true
}
