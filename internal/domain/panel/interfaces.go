package panel

import (
	"context"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
)

// ActivityLogger records panel events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// Archiver stores completed runs.
type Archiver interface {
	Save(ctx context.Context, tenantID string, run *archive.ArchivedRun) error
}

// ReportGate decides whether a tenant may open a run's report.
type ReportGate interface {
	AllowReport(ctx context.Context, tenantID, runID string) bool
}
