package mocks

import (
	"context"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ArchiveRepository is a mock for archive.Repository.
type ArchiveRepository struct {
	mock.Mock
}

func (m *ArchiveRepository) Save(ctx context.Context, tenantID string, run *archive.ArchivedRun) error {
	args := m.Called(ctx, tenantID, run)
	return args.Error(0)
}

func (m *ArchiveRepository) Get(ctx context.Context, tenantID, id string) (*archive.ArchivedRun, error) {
	args := m.Called(ctx, tenantID, id)
	if run, ok := args.Get(0).(*archive.ArchivedRun); ok {
		return run, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ArchiveRepository) List(ctx context.Context, tenantID string, opts archive.ListOptions) ([]archive.ArchivedRun, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]archive.ArchivedRun); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
