package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

// SourceOptions are process-wide settings shared by every schema-backed source.
type SourceOptions struct {
	DefaultPageSize int
	MaxPageSize     int
}

// EntitySource is the schema-backed DataSource over one entity table.
type EntitySource struct {
	entity   *metadata.Entity
	store    *store.Store
	registry *metadata.Registry
	resolver *FilterTypeResolver
	opts     SourceOptions

	columns  Columns
	filters  Filters
	computed []computedColumn
}

// NewEntitySource applies the entity's admin configuration to its descriptors.
func NewEntitySource(s *store.Store, reg *metadata.Registry, resolver *FilterTypeResolver, desc *Descriptors, opts SourceOptions) (*EntitySource, error) {
	if resolver == nil {
		resolver = NewFilterTypeResolver()
	}
	cfg := desc.Entity.Admin

	var computed []computedColumn
	if cfg != nil {
		var err error
		computed, err = compileComputed(cfg.Computed)
		if err != nil {
			return nil, err
		}
	}

	all := append(Columns(nil), desc.Columns...)
	for _, c := range computed {
		all = append(all, c.column)
	}

	return &EntitySource{
		entity:   desc.Entity,
		store:    s,
		registry: reg,
		resolver: resolver,
		opts:     opts,
		columns:  selectColumns(all, cfg),
		filters:  selectFilters(desc.Filters, cfg),
		computed: computed,
	}, nil
}

// selectColumns applies the allow-list, or failing that the exclude-list.
func selectColumns(all Columns, cfg *metadata.AdminConfig) Columns {
	if cfg == nil {
		return all
	}
	if len(cfg.Columns) > 0 {
		out := make(Columns, 0, len(cfg.Columns))
		for _, name := range cfg.Columns {
			if c, ok := all.Get(name); ok {
				out = append(out, c)
			}
		}
		return out
	}
	if len(cfg.ExcludeColumns) > 0 {
		excluded := make(map[string]bool, len(cfg.ExcludeColumns))
		for _, name := range cfg.ExcludeColumns {
			excluded[name] = true
		}
		out := make(Columns, 0, len(all))
		for _, c := range all {
			if !excluded[c.Name] {
				out = append(out, c)
			}
		}
		return out
	}
	return all
}

// selectFilters applies the filterable allow-list: nil keeps every filter, empty keeps none.
func selectFilters(all Filters, cfg *metadata.AdminConfig) Filters {
	if cfg == nil || cfg.Filterable == nil {
		return all
	}
	allowed := make(map[string]bool, len(*cfg.Filterable))
	for _, name := range *cfg.Filterable {
		allowed[name] = true
	}
	out := make(Filters, 0, len(allowed))
	for _, f := range all {
		if allowed[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

func (s *EntitySource) Identifier() string { return s.entity.ShortName() }

func (s *EntitySource) Label() string {
	return firstNonEmpty(s.entity.Label, humanize(s.entity.ShortName()))
}

func (s *EntitySource) Icon() string { return s.entity.Icon }

func (s *EntitySource) Columns() Columns { return s.columns }
func (s *EntitySource) Filters() Filters { return s.filters }

func (s *EntitySource) DefaultSortBy() string {
	if s.entity.Admin != nil && s.entity.Admin.DefaultSortBy != "" {
		return s.entity.Admin.DefaultSortBy
	}
	return s.entity.PrimaryKey.Field
}

func (s *EntitySource) DefaultSortDirection() string {
	return s.entity.Admin.SortDirection()
}

func (s *EntitySource) DefaultPageSize() int {
	if s.entity.Admin != nil && s.entity.Admin.PageSize > 0 {
		return s.entity.Admin.PageSize
	}
	if s.opts.DefaultPageSize > 0 {
		return s.opts.DefaultPageSize
	}
	return 20
}

func (s *EntitySource) RecordType() *metadata.Entity { return s.entity }

func (s *EntitySource) SupportsAction(action string) bool {
	return s.entity.Admin.Supports(action)
}

func (s *EntitySource) RequiredCapability(action string) string {
	return s.entity.Admin.RequiredCapability(action)
}

func (s *EntitySource) IDField() string { return s.entity.PrimaryKey.Field }

func (s *EntitySource) ItemID(record map[string]any) any {
	return record[s.entity.PrimaryKey.Field]
}

func (s *EntitySource) ItemValue(record map[string]any, field string) any {
	if v, ok := record[field]; ok {
		return v
	}
	for _, c := range s.computed {
		if c.column.Name == field {
			return c.eval(record)
		}
	}
	return nil
}

func (s *EntitySource) defaults() Defaults {
	return Defaults{
		SortBy:        s.DefaultSortBy(),
		SortDirection: s.DefaultSortDirection(),
		PageSize:      s.DefaultPageSize(),
		MaxPageSize:   s.opts.MaxPageSize,
	}
}

// Plan resolves list parameters against this source's descriptors.
func (s *EntitySource) Plan(params ListParams) *QueryPlan {
	return BuildPlan(s.columns, s.filters, params, s.defaults())
}

// Query counts first, clamps the page, then loads it.
func (s *EntitySource) Query(ctx context.Context, params ListParams) (*PaginatedResult, error) {
	plan := s.Plan(params)

	cr := BuildCountSQL(s.store.Dialect, s.entity, plan)
	total, err := store.QueryCount(ctx, s.store.DB, cr.SQL, cr.Params...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", s.entity.Name, err)
	}
	plan.Page = ClampPage(plan.Page, total, plan.PageSize)

	rows, err := s.fetch(ctx, plan)
	if err != nil {
		return nil, err
	}
	return NewPaginatedResult(rows, total, plan.Page, plan.PageSize), nil
}

// fetch loads the plan's current page with relations and computed values applied.
func (s *EntitySource) fetch(ctx context.Context, plan *QueryPlan) ([]map[string]any, error) {
	qr := BuildSelectSQL(s.store.Dialect, s.entity, plan)
	rows, err := store.QueryRows(ctx, s.store.DB, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.entity.Name, err)
	}
	if err := s.decorate(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *EntitySource) decorate(ctx context.Context, rows []map[string]any) error {
	if s.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, s.entity.BooleanFields())
	}
	if err := LoadRelations(ctx, s.store, s.registry, s.resolver, s.entity, rows); err != nil {
		return fmt.Errorf("load relations for %s: %w", s.entity.Name, err)
	}
	applyComputed(s.computed, rows)
	return nil
}

func (s *EntitySource) Find(ctx context.Context, id string) (map[string]any, error) {
	key, ok := s.parseID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	qr := BuildFindSQL(s.store.Dialect, s.entity, key)
	row, err := store.QueryRow(ctx, s.store.DB, qr.SQL, qr.Params...)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []map[string]any{row}); err != nil {
		return nil, err
	}
	return row, nil
}

// parseID converts a path id to the primary key's type. Malformed ids match nothing.
func (s *EntitySource) parseID(id string) (any, bool) {
	switch s.entity.PrimaryKey.Type {
	case "uuid":
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, false
		}
		return u.String(), true
	case "int", "integer", "bigint":
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	default:
		return id, id != ""
	}
}

// DeleteMany looks up each id, deletes (or soft deletes) the ones found and
// commits once. Unknown or malformed ids are skipped.
func (s *EntitySource) DeleteMany(ctx context.Context, ids []string) (int, error) {
	d := s.store.Dialect
	pkField := s.entity.PrimaryKey.Field

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deleted := 0
	for _, id := range ids {
		key, ok := s.parseID(id)
		if !ok {
			continue
		}

		lookup := BuildFindSQL(d, s.entity, key)
		if _, err := store.QueryRow(ctx, tx, lookup.SQL, lookup.Params...); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return 0, fmt.Errorf("lookup %s/%s: %w", s.entity.Name, id, err)
		}

		var q string
		if s.entity.SoftDelete {
			q = fmt.Sprintf("UPDATE %s SET deleted_at = %s WHERE %s = %s AND deleted_at IS NULL",
				s.entity.Table, d.NowExpr(), pkField, d.Placeholder(1))
		} else {
			q = fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.entity.Table, pkField, d.Placeholder(1))
		}
		n, err := store.Exec(ctx, tx, q, key)
		if err != nil {
			return 0, fmt.Errorf("delete %s/%s: %w", s.entity.Name, id, d.MapError(err))
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

// Export loads every matching record in list order, up to limit.
func (s *EntitySource) Export(ctx context.Context, params ListParams, limit int) ([]map[string]any, error) {
	if limit < 1 {
		limit = 10000
	}
	plan := s.Plan(params)
	plan.Page = 1
	plan.PageSize = limit
	return s.fetch(ctx, plan)
}
