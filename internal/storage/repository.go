package storage

import (
	"context"

	"iedb-epitope-parser/internal/record"
)

// Repository is the optional database sink for extracted rows. The CSV file
// is always the primary product; a repository mirrors rows for downstream
// querying.
type Repository interface {
	// UpsertRow stores or refreshes a row keyed by its Source URL,
	// returning whether it was newly inserted.
	UpsertRow(ctx context.Context, row record.Row) (isNew bool, err error)

	Close() error
}
