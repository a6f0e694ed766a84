package engine

import "testing"

func TestPaginatedResult_TotalPages(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for size := 1; size <= 12; size++ {
			r := NewPaginatedResult(nil, total, 1, size)
			want := (total + size - 1) / size
			if r.TotalPages() != want {
				t.Fatalf("total=%d size=%d: got %d pages, want %d", total, size, r.TotalPages(), want)
			}
			if (r.TotalPages() == 0) != (total == 0) {
				t.Fatalf("total=%d size=%d: zero pages iff zero items", total, size)
			}
		}
	}
}

func TestPaginatedResult_Derived(t *testing.T) {
	r := NewPaginatedResult(nil, 45, 3, 20)
	if r.StartItem() != 41 || r.EndItem() != 45 {
		t.Fatalf("expected 41-45, got %d-%d", r.StartItem(), r.EndItem())
	}
	if r.HasNext() || !r.HasPrevious() {
		t.Fatalf("last page: has_next=%v has_previous=%v", r.HasNext(), r.HasPrevious())
	}

	r = NewPaginatedResult(nil, 45, 1, 20)
	if r.StartItem() != 1 || r.EndItem() != 20 || !r.HasNext() || r.HasPrevious() {
		t.Fatalf("unexpected first page meta %v", r.Meta())
	}

	empty := NewPaginatedResult(nil, 0, 1, 20)
	if empty.StartItem() != 0 || empty.EndItem() != 0 || empty.HasNext() || empty.HasPrevious() {
		t.Fatalf("unexpected empty meta %v", empty.Meta())
	}
	if empty.Items == nil {
		t.Fatal("items must never be nil")
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct{ page, total, size, want int }{
		{1, 0, 20, 1},
		{5, 0, 20, 1},
		{0, 30, 20, 1},
		{-3, 30, 20, 1},
		{2, 30, 20, 2},
		{3, 30, 20, 2},
		{999, 10, 20, 1},
	}
	for _, tc := range cases {
		if got := ClampPage(tc.page, tc.total, tc.size); got != tc.want {
			t.Errorf("ClampPage(%d, %d, %d) = %d, want %d", tc.page, tc.total, tc.size, got, tc.want)
		}
	}
}
