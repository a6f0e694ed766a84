package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

func reportSource() *MemorySource {
	return NewMemorySource(MemorySourceConfig{
		ID:    "reports",
		Label: "Reports",
		Icon:  "chart",
		Columns: Columns{
			{Name: "id", Label: "ID", Type: ColumnInteger, Sortable: true},
			{Name: "title", Label: "Title", Type: ColumnString, Sortable: true},
			{Name: "kind", Label: "Kind", Type: ColumnString, Sortable: true},
			{Name: "score", Label: "Score", Type: ColumnDecimal, Sortable: true},
			{Name: "published_on", Label: "Published on", Type: ColumnDate},
		},
		Filters: Filters{
			{Name: "kind", Field: "kind", Type: FilterEnum, Operator: OpEq, ValueType: "string", Enabled: true},
			{Name: "score", Field: "score", Type: FilterNumber, Operator: OpGte, ValueType: "decimal", Enabled: true},
			{Name: "published_on", Field: "published_on", Type: FilterDateRange, Operator: OpBetween, Enabled: true},
		},
		SortBy:   "id",
		PageSize: 2,
		Actions:  []string{metadata.ActionIndex, metadata.ActionShow, metadata.ActionDelete, metadata.ActionBatchDelete},
	}, []map[string]any{
		{"id": int64(1), "title": "Weekly sales", "kind": "sales", "score": 4.5, "published_on": "2024-02-01"},
		{"id": int64(2), "title": "Churn", "kind": "retention", "score": 3.0, "published_on": "2024-02-08"},
		{"id": int64(3), "title": "Monthly sales", "kind": "sales", "score": 4.9, "published_on": "2024-03-01"},
		{"id": int64(4), "title": "Cohorts", "kind": "retention", "score": nil, "published_on": nil},
		{"id": int64(5), "title": "Forecast", "kind": "planning", "score": 2.2, "published_on": "2024-03-15"},
	})
}

func TestMemorySource_Query(t *testing.T) {
	src := reportSource()
	ctx := context.Background()

	res, err := src.Query(ctx, ListParams{Search: "SALES"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("search: %v", got)
	}

	res, _ = src.Query(ctx, ListParams{Filters: map[string]any{"kind": []any{"sales", "planning"}}, PageSize: 10})
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{1, 3, 5}) {
		t.Fatalf("in: %v", got)
	}

	res, _ = src.Query(ctx, ListParams{Filters: map[string]any{"score": "4"}, PageSize: 10})
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("gte: %v", got)
	}

	res, _ = src.Query(ctx, ListParams{Filters: map[string]any{
		"published_on": map[string]any{"from": "2024-02-05", "to": "2024-03-01"},
	}, PageSize: 10})
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Fatalf("range: %v", got)
	}

	res, _ = src.Query(ctx, ListParams{Filters: map[string]any{"kind": []any{}}, PageSize: 10})
	if res.TotalItems != 5 {
		t.Fatalf("empty list filter must be skipped, got %d", res.TotalItems)
	}
}

func TestMemorySource_SortAndPaging(t *testing.T) {
	src := reportSource()
	ctx := context.Background()

	res, err := src.Query(ctx, ListParams{SortBy: "score", SortDirection: "desc", PageSize: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{3, 1, 2, 5, 4}) {
		t.Fatalf("score desc with nil last: %v", got)
	}

	res, _ = src.Query(ctx, ListParams{Page: 42})
	if res.Page != 3 || !reflect.DeepEqual(ids(res.Items), []int64{5}) {
		t.Fatalf("expected clamped last page, got page %d %v", res.Page, ids(res.Items))
	}

	res, _ = src.Query(ctx, ListParams{Search: "nothing matches"})
	if res.Page != 1 || res.TotalPages() != 0 || len(res.Items) != 0 {
		t.Fatalf("unexpected empty result %v", res.Meta())
	}
}

func TestMemorySource_ItemsAreCopies(t *testing.T) {
	src := reportSource()
	res, _ := src.Query(context.Background(), ListParams{})
	res.Items[0]["title"] = "changed"

	rec, err := src.Find(context.Background(), "1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec["title"] != "Weekly sales" {
		t.Fatalf("query results must not alias stored records")
	}
	if _, err := src.Find(context.Background(), "42"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySource_DeleteMany(t *testing.T) {
	src := reportSource()
	n, err := src.DeleteMany(context.Background(), []string{"2", "4", "99"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	res, _ := src.Query(context.Background(), ListParams{PageSize: 10})
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{1, 3, 5}) {
		t.Fatalf("unexpected survivors %v", got)
	}
}

func TestMemorySource_Actions(t *testing.T) {
	if !reportSource().SupportsAction(metadata.ActionBatchDelete) {
		t.Fatal("configured actions must be supported")
	}
	plain := memSource("plain", "")
	if !plain.SupportsAction(metadata.ActionIndex) || !plain.SupportsAction(metadata.ActionShow) || plain.SupportsAction(metadata.ActionDelete) {
		t.Fatal("default actions are index and show")
	}
	if plain.Label() != "Plain" || plain.IDField() != "id" || plain.DefaultPageSize() != 20 {
		t.Fatalf("unexpected defaults %s %s %d", plain.Label(), plain.IDField(), plain.DefaultPageSize())
	}
}

func TestMemorySource_NumberFilterWithoutValueType(t *testing.T) {
	src := NewMemorySource(MemorySourceConfig{
		ID:      "counters",
		Columns: Columns{{Name: "id", Type: ColumnInteger}, {Name: "n", Type: ColumnInteger}},
		Filters: Filters{{Name: "n", Type: FilterNumber, Operator: OpGt, Enabled: true}},
	}, []map[string]any{
		{"id": int64(1), "n": 10},
		{"id": int64(2), "n": 5},
	})
	if fd, _ := src.Filters().Get("n"); fd.ValueType != "integer" {
		t.Fatalf("value type should follow the column, got %q", fd.ValueType)
	}

	res, err := src.Query(context.Background(), ListParams{Filters: map[string]any{"n": "9"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := ids(res.Items); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("expected n > 9 to keep 10, got %v", got)
	}
}

func TestCompareValues_NumericStrings(t *testing.T) {
	cases := []struct {
		a, b any
		want int
	}{
		{10, "9", 1},
		{"9", int64(10), -1},
		{2.5, " 2.5 ", 0},
		{10, "abc", -1},
	}
	for _, tc := range cases {
		if got := compareValues(tc.a, tc.b); got != tc.want {
			t.Errorf("compare(%v, %v): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestMemorySource_DeleteLeavesCallerSliceAlone(t *testing.T) {
	records := []map[string]any{{"id": int64(1)}, {"id": int64(2)}, {"id": int64(3)}}
	src := NewMemorySource(MemorySourceConfig{ID: "plain", Actions: []string{metadata.ActionDelete}}, records)

	if n, _ := src.DeleteMany(context.Background(), []string{"1"}); n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if got := ids(records); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("caller's records were rewritten: %v", got)
	}
}
