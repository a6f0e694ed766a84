package engine

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type of a list column.
type ColumnType string

const (
	ColumnString     ColumnType = "string"
	ColumnInteger    ColumnType = "integer"
	ColumnDecimal    ColumnType = "decimal"
	ColumnBoolean    ColumnType = "boolean"
	ColumnDate       ColumnType = "date"
	ColumnDatetime   ColumnType = "datetime"
	ColumnTime       ColumnType = "time"
	ColumnJSON       ColumnType = "json"
	ColumnText       ColumnType = "text"
	ColumnRelation   ColumnType = "relation"
	ColumnCollection ColumnType = "collection"
)

// FilterType selects how a filter value is parsed and matched.
type FilterType string

const (
	FilterText      FilterType = "text"
	FilterNumber    FilterType = "number"
	FilterDate      FilterType = "date"
	FilterDateRange FilterType = "daterange"
	FilterEnum      FilterType = "enum"
	FilterBoolean   FilterType = "boolean"
	FilterRelation  FilterType = "relation"
)

// Comparison operators.
const (
	OpEq      = "="
	OpNeq     = "!="
	OpLt      = "<"
	OpGt      = ">"
	OpLte     = "<="
	OpGte     = ">="
	OpLike    = "LIKE"
	OpBetween = "BETWEEN"
	OpIn      = "IN"
)

// DefaultFilterPriority applies when no priority is configured.
const DefaultFilterPriority = 999

var validOperators = map[string]bool{
	OpEq: true, OpNeq: true, OpLt: true, OpGt: true, OpLte: true, OpGte: true,
	OpLike: true, OpBetween: true, OpIn: true,
}

// ValidOperator reports whether op is one of the supported comparison operators.
func ValidOperator(op string) bool {
	return validOperators[op]
}

// ColumnDescriptor describes how one field is displayed and sorted in a list.
type ColumnDescriptor struct {
	Name     string     `json:"name"`
	Label    string     `json:"label"`
	Type     ColumnType `json:"type"`
	Sortable bool       `json:"sortable"`
	Template string     `json:"template,omitempty"`
	Virtual  bool       `json:"virtual,omitempty"`

	// Field is the stored column backing this one: the foreign key for
	// relations, empty for collections and computed columns.
	Field string `json:"-"`
}

// SortField returns the stored column used to order by this column.
func (c ColumnDescriptor) SortField() string {
	if c.Field != "" {
		return c.Field
	}
	return c.Name
}

// Columns is an ordered column set.
type Columns []ColumnDescriptor

func (cs Columns) Get(name string) (ColumnDescriptor, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

func (cs Columns) Has(name string) bool {
	_, ok := cs.Get(name)
	return ok
}

func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// EnumOptions configures an enum filter. Values and EnumName are exclusive.
type EnumOptions struct {
	Values        []string `json:"values,omitempty"`
	EnumName      string   `json:"enum,omitempty"`
	ShowAllOption bool     `json:"show_all_option"`
	Multiple      bool     `json:"multiple"`
}

// JoinSpec is how a relation filter reaches its target table.
type JoinSpec struct {
	Table      string
	Key        string
	ForeignKey string
}

// FilterDescriptor describes how one field can be queried.
type FilterDescriptor struct {
	Name         string       `json:"name"`
	Type         FilterType   `json:"type"`
	Label        string       `json:"label"`
	Placeholder  string       `json:"placeholder,omitempty"`
	Operator     string       `json:"operator"`
	Enum         *EnumOptions `json:"enum_options,omitempty"`
	SearchFields []string     `json:"search_fields,omitempty"`
	Priority     int          `json:"priority"`
	Enabled      bool         `json:"enabled"`

	// Field is the stored column the filter applies to.
	Field string `json:"-"`
	// ValueType is the scalar type incoming values are coerced to.
	ValueType string `json:"-"`
	// Join is set for relation filters over a SQL source.
	Join *JoinSpec `json:"-"`
}

// Column returns the stored column name, defaulting to the filter name.
func (f FilterDescriptor) Column() string {
	if f.Field != "" {
		return f.Field
	}
	return f.Name
}

// ToMap returns the external array form handed to the rendering layer.
// show_all_option is only present when it differs from its default (true).
func (f FilterDescriptor) ToMap() map[string]any {
	m := map[string]any{
		"type":     string(f.Type),
		"label":    f.Label,
		"operator": f.Operator,
		"priority": f.Priority,
	}
	if f.Placeholder != "" {
		m["placeholder"] = f.Placeholder
	}
	if len(f.SearchFields) > 0 {
		m["search_fields"] = append([]string(nil), f.SearchFields...)
	}
	if f.Enum != nil {
		opts := map[string]any{"multiple": f.Enum.Multiple}
		if f.Enum.EnumName != "" {
			opts["enum"] = f.Enum.EnumName
		} else {
			opts["values"] = append([]string(nil), f.Enum.Values...)
		}
		if !f.Enum.ShowAllOption {
			opts["show_all_option"] = false
		}
		m["enum_options"] = opts
	}
	return m
}

// FilterDescriptorFromMap reads back the form produced by ToMap.
func FilterDescriptorFromMap(name string, m map[string]any) (FilterDescriptor, error) {
	f := FilterDescriptor{Name: name, Enabled: true, Priority: DefaultFilterPriority}

	t, _ := m["type"].(string)
	if t == "" {
		return f, fmt.Errorf("filter %s: missing type", name)
	}
	f.Type = FilterType(t)
	f.Label, _ = m["label"].(string)
	f.Placeholder, _ = m["placeholder"].(string)
	f.Operator, _ = m["operator"].(string)
	if f.Operator != "" && !ValidOperator(strings.ToUpper(f.Operator)) {
		return f, fmt.Errorf("filter %s: unknown operator %q", name, f.Operator)
	}
	f.Operator = strings.ToUpper(f.Operator)
	if p, ok := asInt(m["priority"]); ok {
		f.Priority = p
	}
	f.SearchFields = asStrings(m["search_fields"])

	if raw, ok := m["enum_options"].(map[string]any); ok {
		opts := &EnumOptions{ShowAllOption: true}
		opts.Values = asStrings(raw["values"])
		opts.EnumName, _ = raw["enum"].(string)
		opts.Multiple, _ = raw["multiple"].(bool)
		if v, ok := raw["show_all_option"].(bool); ok {
			opts.ShowAllOption = v
		}
		f.Enum = opts
	}
	return f, nil
}

// Filters is an ordered filter set.
type Filters []FilterDescriptor

func (fs Filters) Get(name string) (FilterDescriptor, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return FilterDescriptor{}, false
}

func (fs Filters) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

func (fs Filters) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Without returns the filters whose names are not in the denied set.
func (fs Filters) Without(denied map[string]bool) Filters {
	out := make(Filters, 0, len(fs))
	for _, f := range fs {
		if !denied[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Maps returns the external form of every filter keyed by name.
func (fs Filters) Maps() map[string]any {
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Name] = f.ToMap()
	}
	return m
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asStrings(v any) []string {
	switch l := v.(type) {
	case []string:
		return append([]string(nil), l...)
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}
	return nil
}

// humanize turns "created_at" into "Created at".
func humanize(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
