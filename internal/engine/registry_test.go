package engine

import (
	"errors"
	"reflect"
	"testing"

	"rocket-admin/internal/metadata"
)

func memSource(id, label string) *MemorySource {
	return NewMemorySource(MemorySourceConfig{
		ID:      id,
		Label:   label,
		Columns: Columns{{Name: "id", Label: "ID", Type: ColumnInteger, Sortable: true}},
	}, nil)
}

func TestRegistry_CustomOverridesSchema(t *testing.T) {
	f := newFixture(t, categoryEntity(), itemEntity())

	if src := f.source(t, "item"); src.Label() != "Item" {
		t.Fatalf("expected schema source, got %s", src.Label())
	}
	if origin, _ := f.sources.Origin("item"); origin != OriginSchema {
		t.Fatalf("expected schema origin, got %s", origin)
	}

	custom := memSource("item", "Custom items")
	f.sources.Register(custom)

	src, ok := f.sources.Get("item")
	if !ok || src != DataSource(custom) {
		t.Fatalf("custom source must win, got %v", src)
	}
	if origin, _ := f.sources.Origin("item"); origin != OriginCustom {
		t.Fatalf("expected custom origin, got %s", origin)
	}
	if got := f.sources.Identifiers(); !reflect.DeepEqual(got, []string{"item"}) {
		t.Fatalf("identifiers: %v", got)
	}
}

func TestRegistry_Precedence(t *testing.T) {
	f := newFixture(t, categoryEntity(), itemEntity())

	fromProvider := memSource("item", "Provided items")
	reports := memSource("reports", "Reports")
	f.sources.AddProvider(ProviderFunc(func() ([]DataSource, error) {
		return []DataSource{fromProvider, reports}, nil
	}))
	f.sources.AddProvider(ProviderFunc(func() ([]DataSource, error) {
		return nil, errors.New("plugin offline")
	}))

	if src, _ := f.sources.Get("item"); src != DataSource(fromProvider) {
		t.Fatal("provider source must override schema source")
	}

	custom := memSource("reports", "Custom reports")
	f.sources.Register(custom)
	if src, _ := f.sources.Get("reports"); src != DataSource(custom) {
		t.Fatal("custom source must override provider source")
	}
	if origin, _ := f.sources.Origin("item"); origin != OriginProvider {
		t.Fatalf("expected provider origin, got %s", origin)
	}

	if !f.sources.Has("reports") || f.sources.Has("missing") {
		t.Fatal("Has disagrees with registrations")
	}
	if src, ok := f.sources.Get("missing"); ok || src != nil {
		t.Fatal("unknown id must return none")
	}
	if len(f.sources.All()) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(f.sources.All()))
	}
}

func TestRegistry_ClearCacheRebuilds(t *testing.T) {
	f := newFixture(t, categoryEntity(), itemEntity())

	calls := 0
	f.sources.AddProvider(ProviderFunc(func() ([]DataSource, error) {
		calls++
		return nil, nil
	}))

	first, _ := f.sources.Get("item")
	f.sources.All()
	f.sources.Identifiers()
	if calls != 1 {
		t.Fatalf("merged map must be built once, provider called %d times", calls)
	}

	// schema changes are only visible after an explicit clear
	renamed := itemEntity()
	renamed.Label = "Products"
	f.meta.Load([]*metadata.Entity{categoryEntity(), renamed})
	if src, _ := f.sources.Get("item"); src.Label() != "Item" {
		t.Fatalf("stale cache expected before clear, got %s", src.Label())
	}

	f.sources.ClearCache()
	second, _ := f.sources.Get("item")
	if calls != 2 {
		t.Fatalf("expected rebuild after clear, provider called %d times", calls)
	}
	if second == first || second.Label() != "Products" {
		t.Fatalf("expected a freshly discovered source, got %s", second.Label())
	}
}

func TestDiscovery_OnlyManagedEntities(t *testing.T) {
	f := newFixture(t, categoryEntity(), itemEntity())
	if f.sources.Has("category") {
		t.Fatal("entities without admin configuration are not discovered")
	}
	if got := f.sources.Identifiers(); !reflect.DeepEqual(got, []string{"item"}) {
		t.Fatalf("identifiers: %v", got)
	}
}
