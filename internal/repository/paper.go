package repository

import (
	"context"
	"time"

	"paperapi/internal/model"
	"paperapi/internal/query"
)

// PaperRepository defines data access for question papers using SQL queries only.
// No business logic here, strictly persistence operations.
// Missing rows are reported as apperr.ErrNotFound.
type PaperRepository interface {
	// Create inserts a new paper record and returns the stored row.
	// Required descriptive fields are checked and reported as *apperr.ValidationError.
	Create(ctx context.Context, p *model.Paper) (*model.Paper, error)

	// FindByID returns a paper by its ID.
	FindByID(ctx context.Context, id string) (*model.Paper, error)

	// List returns one page of papers matching f, most recent first.
	// It returns an empty slice, not an error, when nothing matches.
	List(ctx context.Context, f query.Filter, page query.PageRequest) ([]model.Paper, error)

	// Count returns the number of papers matching f, ignoring pagination.
	Count(ctx context.Context, f query.Filter) (int, error)

	// IncrementDownload atomically adds one to the paper's download counter.
	IncrementDownload(ctx context.Context, id string) error

	// Delete removes a paper row by ID.
	Delete(ctx context.Context, id string) error

	// Stats aggregates catalog totals; ThisMonth counts rows created at or after since.
	Stats(ctx context.Context, since time.Time) (*model.Stats, error)
}
