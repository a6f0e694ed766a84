package engine

// PaginatedResult is one page of a list query. Everything but the four
// stored fields is derived.
type PaginatedResult struct {
	Items      []map[string]any
	TotalItems int
	Page       int
	PageSize   int
}

func NewPaginatedResult(items []map[string]any, total, page, pageSize int) *PaginatedResult {
	if items == nil {
		items = []map[string]any{}
	}
	return &PaginatedResult{Items: items, TotalItems: total, Page: page, PageSize: pageSize}
}

func (r *PaginatedResult) TotalPages() int {
	if r.TotalItems == 0 || r.PageSize < 1 {
		return 0
	}
	return (r.TotalItems + r.PageSize - 1) / r.PageSize
}

func (r *PaginatedResult) StartItem() int {
	if r.TotalItems == 0 {
		return 0
	}
	return (r.Page-1)*r.PageSize + 1
}

func (r *PaginatedResult) EndItem() int {
	if r.TotalItems == 0 {
		return 0
	}
	return min(r.Page*r.PageSize, r.TotalItems)
}

func (r *PaginatedResult) HasNext() bool {
	return r.Page < r.TotalPages()
}

func (r *PaginatedResult) HasPrevious() bool {
	return r.Page > 1
}

// Meta is the pagination block of a list response.
func (r *PaginatedResult) Meta() map[string]any {
	return map[string]any{
		"page":         r.Page,
		"per_page":     r.PageSize,
		"total":        r.TotalItems,
		"total_pages":  r.TotalPages(),
		"start":        r.StartItem(),
		"end":          r.EndItem(),
		"has_next":     r.HasNext(),
		"has_previous": r.HasPrevious(),
	}
}

// ClampPage bounds page to [1, totalPages]; an empty result always lands on page 1.
func ClampPage(page, total, pageSize int) int {
	pages := 0
	if total > 0 && pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return max(1, min(page, pages))
}
