package engine

import (
	"context"

	"rocket-admin/internal/metadata"
)

// DataSource is the uniform describe/query contract over one record type or custom dataset.
type DataSource interface {
	Identifier() string
	Label() string
	Icon() string

	Columns() Columns
	Filters() Filters

	DefaultSortBy() string
	DefaultSortDirection() string
	DefaultPageSize() int

	// Query runs one list request. Out-of-range pages are clamped, never an error.
	Query(ctx context.Context, params ListParams) (*PaginatedResult, error)

	// Find returns the record with the given id, or store.ErrNotFound.
	Find(ctx context.Context, id string) (map[string]any, error)

	SupportsAction(action string) bool

	IDField() string
	ItemID(record map[string]any) any
	ItemValue(record map[string]any, field string) any
}

// BatchDeleter is implemented by sources that can delete records in bulk.
type BatchDeleter interface {
	// DeleteMany deletes the records that exist among ids and returns how many were deleted.
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// ActionGuard is implemented by sources that require a capability per action.
type ActionGuard interface {
	RequiredCapability(action string) string
}

// TypedSource is implemented by sources backed by a record type. A nil record
// type means the source is fully custom and its columns are not permission-filtered.
type TypedSource interface {
	RecordType() *metadata.Entity
}

func recordTypeOf(src DataSource) *metadata.Entity {
	if ts, ok := src.(TypedSource); ok {
		return ts.RecordType()
	}
	return nil
}
