package archive

import "context"

// Repository provides persistence for archived runs.
type Repository interface {
	Save(ctx context.Context, tenantID string, run *ArchivedRun) error
	Get(ctx context.Context, tenantID, id string) (*ArchivedRun, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]ArchivedRun, error)
}

// ListOptions filters archived runs.
type ListOptions struct {
	PanelID string
	Limit   int
	Offset  int
}
