package engine

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ListParams are the UI parameters of one list request.
type ListParams struct {
	Search        string
	Filters       map[string]any
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int

	// Denied names columns the caller may not see. They are neither
	// searched, filtered nor sorted on.
	Denied map[string]bool
}

// Defaults are the per-source fallbacks applied while planning.
type Defaults struct {
	SortBy        string
	SortDirection string
	PageSize      int
	MaxPageSize   int
}

type ConditionKind int

const (
	CondSearch ConditionKind = iota
	CondCompare
	CondContains
	CondIn
	CondRange
	CondRelation
)

// Condition is one dialect-neutral predicate. All conditions of a plan are AND-combined.
type Condition struct {
	Kind     ConditionKind
	Name     string   // filter or column name
	Field    string   // stored column
	Fields   []string // search: stored columns; relation: target search fields
	Operator string
	Value    any
	Values   []any
	From     *time.Time
	To       *time.Time
	Join     *JoinSpec
}

// QueryPlan is the resolved form of ListParams against a descriptor set.
type QueryPlan struct {
	Conditions []Condition
	SortColumn string
	SortField  string
	SortDir    string
	Page       int
	PageSize   int
}

// Offset returns the index of the first item of the current page.
func (p *QueryPlan) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// BuildPlan turns list parameters into a query plan. Values that cannot be
// parsed for their filter type are ignored rather than rejected.
func BuildPlan(columns Columns, filters Filters, params ListParams, d Defaults) *QueryPlan {
	plan := &QueryPlan{Page: params.Page, PageSize: params.PageSize}

	if term := strings.TrimSpace(params.Search); term != "" {
		var fields []string
		for _, c := range columns {
			if c.Virtual || params.Denied[c.Name] {
				continue
			}
			if c.Type == ColumnString || c.Type == ColumnText {
				fields = append(fields, c.SortField())
			}
		}
		if len(fields) > 0 {
			plan.Conditions = append(plan.Conditions, Condition{Kind: CondSearch, Fields: fields, Value: term})
		}
	}

	for _, f := range filters {
		if !f.Enabled || params.Denied[f.Name] {
			continue
		}
		raw, ok := params.Filters[f.Name]
		if !ok || isBlank(raw) {
			continue
		}
		if cond, ok := buildCondition(f, raw); ok {
			plan.Conditions = append(plan.Conditions, cond)
		}
	}

	plan.SortDir = normalizeDirection(params.SortDirection, d.SortDirection)
	col, ok := sortableColumn(columns, params.SortBy, params.Denied)
	if !ok {
		col, ok = sortableColumn(columns, d.SortBy, params.Denied)
	}
	if ok {
		plan.SortColumn = col.Name
		plan.SortField = col.SortField()
	}

	if plan.PageSize < 1 {
		plan.PageSize = d.PageSize
	}
	if plan.PageSize < 1 {
		plan.PageSize = 20
	}
	if d.MaxPageSize > 0 && plan.PageSize > d.MaxPageSize {
		plan.PageSize = d.MaxPageSize
	}
	if plan.Page < 1 {
		plan.Page = 1
	}
	return plan
}

func buildCondition(f FilterDescriptor, raw any) (Condition, bool) {
	cond := Condition{Name: f.Name, Field: f.Column(), Operator: f.Operator}

	switch f.Type {
	case FilterText:
		if f.Operator == OpLike || f.Operator == "" {
			cond.Kind = CondContains
			cond.Value = stringValue(raw)
			return cond, true
		}
		return scalarCondition(f, raw)

	case FilterNumber, FilterBoolean, FilterEnum:
		return scalarCondition(f, raw)

	case FilterDate:
		from, to, ok := parseDay(raw)
		if !ok {
			log.Printf("WARN: ignoring filter %s: unparseable date %v", f.Name, raw)
			return cond, false
		}
		cond.Kind = CondRange
		cond.From, cond.To = &from, &to
		return cond, true

	case FilterDateRange:
		from, to, ok := parseDateRange(raw)
		if !ok {
			log.Printf("WARN: ignoring filter %s: unparseable date range %v", f.Name, raw)
			return cond, false
		}
		cond.Kind = CondRange
		cond.From, cond.To = from, to
		return cond, true

	case FilterRelation:
		cond.Kind = CondRelation
		cond.Value = stringValue(raw)
		cond.Fields = f.SearchFields
		if len(cond.Fields) == 0 {
			cond.Fields = []string{"id"}
		}
		cond.Join = f.Join
		return cond, true
	}
	return cond, false
}

// scalarCondition handles IN lists and single-value comparisons.
func scalarCondition(f FilterDescriptor, raw any) (Condition, bool) {
	cond := Condition{Name: f.Name, Field: f.Column(), Operator: f.Operator}
	if cond.Operator == "" || cond.Operator == OpLike || cond.Operator == OpBetween {
		cond.Operator = OpEq
	}

	if f.Operator == OpIn || isList(raw) {
		items := parseList(raw)
		var values []any
		for _, item := range items {
			if v, ok := coerceValue(f.ValueType, item); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return cond, false
		}
		cond.Kind = CondIn
		cond.Operator = OpIn
		cond.Values = values
		return cond, true
	}

	v, ok := coerceValue(f.ValueType, raw)
	if !ok {
		log.Printf("WARN: ignoring filter %s: %v is not a valid %s", f.Name, raw, f.ValueType)
		return cond, false
	}
	cond.Kind = CondCompare
	cond.Value = v
	return cond, true
}

func sortableColumn(columns Columns, name string, denied map[string]bool) (ColumnDescriptor, bool) {
	if name == "" || denied[name] {
		return ColumnDescriptor{}, false
	}
	c, ok := columns.Get(name)
	if !ok || !c.Sortable || c.Virtual {
		return ColumnDescriptor{}, false
	}
	return c, true
}

func normalizeDirection(dir, fallback string) string {
	switch strings.ToUpper(dir) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if strings.EqualFold(fallback, "DESC") {
		return "DESC"
	}
	return "ASC"
}

// ParseListParams reads list parameters from the request query string:
//
//	search=..&sort=..&direction=..&page=..&per_page=..
//	filter[status]=active
//	filter[status][]=a&filter[status][]=b
//	filter[created_at][from]=2024-01-01&filter[created_at][to]=2024-01-31
func ParseListParams(c *fiber.Ctx) ListParams {
	params := ListParams{
		Search:        c.Query("search"),
		SortBy:        c.Query("sort"),
		SortDirection: c.Query("direction"),
		Filters:       make(map[string]any),
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = p
	}
	if pp, err := strconv.Atoi(c.Query("per_page")); err == nil {
		params.PageSize = pp
	}

	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		key, val := string(k), string(v)
		if !strings.HasPrefix(key, "filter[") {
			return
		}
		rest := key[len("filter["):]
		end := strings.Index(rest, "]")
		if end <= 0 {
			return
		}
		name, suffix := rest[:end], rest[end+1:]

		switch suffix {
		case "":
			params.Filters[name] = val
		case "[]":
			list, _ := params.Filters[name].([]any)
			params.Filters[name] = append(list, val)
		case "[from]", "[to]":
			rng, ok := params.Filters[name].(map[string]any)
			if !ok {
				rng = make(map[string]any)
				params.Filters[name] = rng
			}
			rng[suffix[1:len(suffix)-1]] = val
		}
	})
	return params
}
