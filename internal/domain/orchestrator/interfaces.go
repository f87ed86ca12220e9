package orchestrator

import "context"

// ReportGate decides whether the report view may be opened for a run.
type ReportGate interface {
	AllowReport(ctx context.Context, runID string) bool
}

// ReportGateFunc adapts a function to ReportGate.
type ReportGateFunc func(ctx context.Context, runID string) bool

// AllowReport calls f.
func (f ReportGateFunc) AllowReport(ctx context.Context, runID string) bool {
	return f(ctx, runID)
}

type allowAll struct{}

func (allowAll) AllowReport(context.Context, string) bool { return true }
