// Package store persists directory businesses, submissions, and
// enrichment snapshots. Backends are chosen at construction time from
// config: SQLite for local use, Postgres for production, in-memory
// for tests.
package store

import (
	"context"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

// SubmissionFilter specifies criteria for listing submissions.
type SubmissionFilter struct {
	Status model.SubmissionStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// BulkImporter is implemented by backends that can insert many
// businesses in one write. Callers fall back to CreateBusiness per
// row when the backend does not implement it.
type BulkImporter interface {
	BulkImportBusinesses(ctx context.Context, businesses []model.Business) (int64, error)
}

// Store defines the persistence interface for the directory core.
// Lookup methods return (nil, nil) when no record matches.
type Store interface {
	// Businesses
	CreateBusiness(ctx context.Context, b *model.Business) error
	UpdateBusiness(ctx context.Context, b *model.Business) error
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	FindByNameKey(ctx context.Context, nameKey string) (*model.Business, error)
	FindByAddressAndPhone(ctx context.Context, addressKey, phone string) (*model.Business, error)
	ListBusinessesByZip(ctx context.Context, zip string, limit int) ([]model.Business, error)

	// Submissions
	CreateSubmission(ctx context.Context, s *model.Submission) error
	UpdateSubmission(ctx context.Context, s *model.Submission) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error)

	// Enrichment snapshots (whole-snapshot replace per parameter key)
	GetSnapshot(ctx context.Context, paramKey string) (*model.Snapshot, error)
	SetSnapshot(ctx context.Context, paramKey string, snap *model.Snapshot) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
