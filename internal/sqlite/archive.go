package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/repository"
)

// ArchiveRepository implements archive.Repository for SQLite
type ArchiveRepository struct {
	db *DB
}

// NewArchiveRepository creates a new ArchiveRepository
func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Save inserts an archived run. Runs are immutable once archived.
func (r *ArchiveRepository) Save(ctx context.Context, tenantID string, run *archive.ArchivedRun) error {
	participants, err := json.Marshal(run.ParticipantIDs)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}
	transcript, err := json.Marshal(run.Transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	consensus, err := json.Marshal(run.Consensus)
	if err != nil {
		return fmt.Errorf("failed to encode consensus: %w", err)
	}

	query := `
		INSERT INTO archived_runs (
			id, tenant_id, panel_id, case_text, participant_ids,
			transcript, consensus, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		tenantID,
		run.PanelID,
		run.CaseText,
		string(participants),
		string(transcript),
		string(consensus),
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to archive run: %w", err)
	}

	run.TenantID = tenantID
	return nil
}

// Get retrieves an archived run by ID
func (r *ArchiveRepository) Get(ctx context.Context, tenantID, id string) (*archive.ArchivedRun, error) {
	query := `
		SELECT id, tenant_id, panel_id, case_text, participant_ids,
			transcript, consensus, started_at, completed_at
		FROM archived_runs
		WHERE tenant_id = ? AND id = ?
	`
	run, err := scanArchivedRun(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// List returns archived runs, most recently completed first
func (r *ArchiveRepository) List(ctx context.Context, tenantID string, opts archive.ListOptions) ([]archive.ArchivedRun, error) {
	query := `
		SELECT id, tenant_id, panel_id, case_text, participant_ids,
			transcript, consensus, started_at, completed_at
		FROM archived_runs
		WHERE tenant_id = ?
	`
	args := []any{tenantID}
	if opts.PanelID != "" {
		query += " AND panel_id = ?"
		args = append(args, opts.PanelID)
	}
	query += " ORDER BY completed_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived runs: %w", err)
	}
	defer rows.Close()

	var runs []archive.ArchivedRun
	for rows.Next() {
		run, err := scanArchivedRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archived runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchivedRun(row rowScanner) (*archive.ArchivedRun, error) {
	var run archive.ArchivedRun
	var participants, transcript, consensus string
	if err := row.Scan(
		&run.ID,
		&run.TenantID,
		&run.PanelID,
		&run.CaseText,
		&participants,
		&transcript,
		&consensus,
		&run.StartedAt,
		&run.CompletedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan archived run: %w", err)
	}
	if err := json.Unmarshal([]byte(participants), &run.ParticipantIDs); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(transcript), &run.Transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(consensus), &run.Consensus); err != nil {
		return nil, fmt.Errorf("failed to decode consensus: %w", err)
	}
	return &run, nil
}
