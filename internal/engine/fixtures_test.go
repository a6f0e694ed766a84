package engine

import (
	"context"
	"fmt"
	"testing"

	"rocket-admin/internal/config"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func categoryEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:       "category",
		Table:      "categories",
		PrimaryKey: metadata.PrimaryKey{Field: "id", Type: "int"},
		Fields: []metadata.Field{
			{Name: "id", Type: "int"},
			{Name: "name", Type: "string"},
		},
	}
}

func itemEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:       "shop.item",
		Table:      "items",
		Icon:       "box",
		PrimaryKey: metadata.PrimaryKey{Field: "id", Type: "int"},
		Fields: []metadata.Field{
			{Name: "id", Type: "int"},
			{Name: "name", Type: "string"},
			{Name: "status", Type: "string", Enum: []string{"active", "inactive"}},
			{Name: "price", Type: "decimal"},
			{Name: "featured", Type: "boolean"},
			{Name: "created_at", Type: "timestamp"},
			{Name: "secret", Type: "string", Capability: "view_secret"},
			{Name: "category_id", Type: "int"},
		},
		Associations: []metadata.Association{
			{Name: "category", Target: "category", ForeignKey: "category_id"},
		},
		Admin: &metadata.AdminConfig{
			Permissions: map[string]string{metadata.ActionBatchDelete: "manage_items"},
			Computed: []metadata.ComputedColumn{
				{Name: "display", Expression: `record.name + " (" + record.status + ")"`},
			},
		},
	}
}

type fixture struct {
	store   *store.Store
	meta    *metadata.Registry
	intro   *Introspector
	sources *Registry
	perms   *PermissionFilter
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// newFixture migrates the given entities into an in-memory SQLite store and
// wires discovery, registry and permission filter over them.
func newFixture(t *testing.T, entities ...*metadata.Entity) *fixture {
	t.Helper()
	s := newTestStore(t)
	mig := store.NewMigrator(s)
	for _, e := range entities {
		if err := mig.Migrate(context.Background(), e); err != nil {
			t.Fatalf("migrate %s: %v", e.Name, err)
		}
	}

	meta := metadata.NewRegistry()
	meta.Load(entities)

	resolver := NewFilterTypeResolver()
	intro := NewIntrospector(meta, resolver)
	discovery := NewDiscovery(meta, intro, func(d *Descriptors) (DataSource, error) {
		return NewEntitySource(s, meta, resolver, d, SourceOptions{DefaultPageSize: 20, MaxPageSize: 100})
	})
	return &fixture{
		store:   s,
		meta:    meta,
		intro:   intro,
		sources: NewRegistry(discovery),
		perms:   NewPermissionFilter(nil),
	}
}

func (f *fixture) exec(t *testing.T, q string, args ...any) {
	t.Helper()
	if _, err := f.store.DB.ExecContext(context.Background(), q, args...); err != nil {
		t.Fatalf("exec %q: %v", q, err)
	}
}

func (f *fixture) source(t *testing.T, id string) DataSource {
	t.Helper()
	src, ok := f.sources.Get(id)
	if !ok {
		t.Fatalf("source %s not registered", id)
	}
	return src
}

// seedItems inserts n items; the first `active` of them are active. Items
// alternate between category 1 (Books) and 2 (Games); item i was created on
// day i of January 2024.
func seedItems(t *testing.T, f *fixture, n, active int) {
	t.Helper()
	f.exec(t, "INSERT INTO categories (id, name) VALUES (1, 'Books'), (2, 'Games')")
	for i := 1; i <= n; i++ {
		status := "inactive"
		if i <= active {
			status = "active"
		}
		f.exec(t,
			"INSERT INTO items (id, name, status, price, featured, created_at, secret, category_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			i, fmt.Sprintf("Item %02d", i), status, float64(i)*1.5, i%3 == 0,
			fmt.Sprintf("2024-01-%02d 10:00:00", (i-1)%28+1), fmt.Sprintf("s%d", i), i%2+1)
	}
}

func ids(items []map[string]any) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i], _ = item["id"].(int64)
	}
	return out
}

func registryOf(entities ...*metadata.Entity) *metadata.Registry {
	reg := metadata.NewRegistry()
	reg.Load(entities)
	return reg
}
