package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/tumorboard/internal/repository"
)

const defaultListLimit = 20

// Service handles archived run operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new archive service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Save stores a completed run.
func (s *Service) Save(ctx context.Context, tenantID string, run *ArchivedRun) error {
	if run == nil || run.ID == "" || run.PanelID == "" || run.CompletedAt.IsZero() {
		return ErrInvalidInput
	}
	if err := s.repo.Save(ctx, tenantID, run); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("run %s already archived: %w", run.ID, err)
		}
		return fmt.Errorf("saving archived run: %w", err)
	}
	s.logger.Info("run archived", "tenant_id", tenantID, "run_id", run.ID, "turns", len(run.Transcript))
	return nil
}

// Get loads one archived run.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*ArchivedRun, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	run, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("loading archived run: %w", err)
	}
	return run, nil
}

// List returns summaries of archived runs, newest first.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]RunSummary, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	runs, err := s.repo.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing archived runs: %w", err)
	}
	summaries := make([]RunSummary, 0, len(runs))
	for i := range runs {
		summaries = append(summaries, Summarize(&runs[i]))
	}
	return summaries, nil
}
