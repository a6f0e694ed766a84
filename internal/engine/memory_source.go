package engine

import (
	"context"
	"fmt"
	"sync"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

// MemorySourceConfig describes a custom data source over in-memory records.
type MemorySourceConfig struct {
	ID            string
	Label         string
	Icon          string
	Columns       Columns
	Filters       Filters
	SortBy        string
	SortDirection string
	PageSize      int
	IDField       string
	Actions       []string         // empty = index and show
	RecordType    *metadata.Entity // optional; enables column permissions
}

// MemorySource is a custom DataSource that filters, sorts and pages a record
// slice with the same plan as schema-backed sources.
type MemorySource struct {
	cfg MemorySourceConfig

	mu      sync.RWMutex
	records []map[string]any
}

func NewMemorySource(cfg MemorySourceConfig, records []map[string]any) *MemorySource {
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 20
	}
	cfg.Filters = withValueTypes(cfg.Filters, cfg.Columns)
	return &MemorySource{cfg: cfg, records: append([]map[string]any(nil), records...)}
}

// withValueTypes fills in the value type of hand-built filters from the
// column they apply to.
func withValueTypes(filters Filters, columns Columns) Filters {
	if filters == nil {
		return nil
	}
	out := make(Filters, len(filters))
	copy(out, filters)
	for i, f := range out {
		if f.ValueType != "" {
			continue
		}
		col, ok := columns.Get(f.Column())
		if !ok {
			continue
		}
		switch col.Type {
		case ColumnInteger:
			out[i].ValueType = "integer"
		case ColumnDecimal:
			out[i].ValueType = "decimal"
		case ColumnBoolean:
			out[i].ValueType = "boolean"
		}
	}
	return out
}

func (m *MemorySource) Identifier() string { return m.cfg.ID }

func (m *MemorySource) Label() string {
	return firstNonEmpty(m.cfg.Label, humanize(m.cfg.ID))
}

func (m *MemorySource) Icon() string                 { return m.cfg.Icon }
func (m *MemorySource) Columns() Columns             { return m.cfg.Columns }
func (m *MemorySource) Filters() Filters             { return m.cfg.Filters }
func (m *MemorySource) DefaultSortBy() string        { return m.cfg.SortBy }
func (m *MemorySource) DefaultSortDirection() string { return normalizeDirection(m.cfg.SortDirection, "ASC") }
func (m *MemorySource) DefaultPageSize() int         { return m.cfg.PageSize }
func (m *MemorySource) IDField() string              { return m.cfg.IDField }
func (m *MemorySource) RecordType() *metadata.Entity { return m.cfg.RecordType }

func (m *MemorySource) SupportsAction(action string) bool {
	actions := m.cfg.Actions
	if len(actions) == 0 {
		actions = []string{metadata.ActionIndex, metadata.ActionShow}
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func (m *MemorySource) ItemID(record map[string]any) any {
	return record[m.cfg.IDField]
}

func (m *MemorySource) ItemValue(record map[string]any, field string) any {
	return record[field]
}

func (m *MemorySource) Query(ctx context.Context, params ListParams) (*PaginatedResult, error) {
	plan := BuildPlan(m.cfg.Columns, m.cfg.Filters, params, Defaults{
		SortBy:        m.cfg.SortBy,
		SortDirection: m.cfg.SortDirection,
		PageSize:      m.cfg.PageSize,
	})

	m.mu.RLock()
	matched := make([]map[string]any, 0, len(m.records))
	for _, rec := range m.records {
		if MatchRecord(rec, plan) {
			matched = append(matched, rec)
		}
	}
	m.mu.RUnlock()

	SortRecords(matched, plan)

	total := len(matched)
	plan.Page = ClampPage(plan.Page, total, plan.PageSize)
	start := min(plan.Offset(), total)
	end := min(start+plan.PageSize, total)

	items := make([]map[string]any, 0, end-start)
	for _, rec := range matched[start:end] {
		items = append(items, copyRecord(rec))
	}
	return NewPaginatedResult(items, total, plan.Page, plan.PageSize), nil
}

func (m *MemorySource) Find(ctx context.Context, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if fmt.Sprintf("%v", rec[m.cfg.IDField]) == id {
			return copyRecord(rec), nil
		}
	}
	return nil, store.ErrNotFound
}

// DeleteMany removes the records whose ids are listed. Unknown ids are skipped.
func (m *MemorySource) DeleteMany(ctx context.Context, ids []string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	deleted := 0
	for _, rec := range m.records {
		if drop[fmt.Sprintf("%v", rec[m.cfg.IDField])] {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
