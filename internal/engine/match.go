package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MatchRecord evaluates the plan's conditions against one in-memory record.
func MatchRecord(rec map[string]any, plan *QueryPlan) bool {
	for _, c := range plan.Conditions {
		if !matchCondition(rec, c) {
			return false
		}
	}
	return true
}

func matchCondition(rec map[string]any, c Condition) bool {
	switch c.Kind {
	case CondSearch:
		for _, f := range c.Fields {
			if containsFold(rec[f], c.Value) {
				return true
			}
		}
		return false

	case CondContains:
		return containsFold(rec[c.Field], c.Value)

	case CondCompare:
		return compareWith(c.Operator, rec[c.Field], c.Value)

	case CondIn:
		return valueInList(rec[c.Field], c.Values)

	case CondRange:
		t, ok := parseTime(rec[c.Field])
		if !ok {
			return false
		}
		if c.From != nil && t.Before(*c.From) {
			return false
		}
		if c.To != nil && t.After(*c.To) {
			return false
		}
		return true

	case CondRelation:
		related, ok := rec[c.Name].(map[string]any)
		if !ok {
			return containsFold(rec[c.Field], c.Value)
		}
		for _, f := range c.Fields {
			if containsFold(related[f], c.Value) {
				return true
			}
		}
		return false
	}
	return true
}

// SortRecords orders records in place by the plan's sort column. Nil values sort first.
func SortRecords(recs []map[string]any, plan *QueryPlan) {
	if plan.SortField == "" {
		return
	}
	desc := plan.SortDir == "DESC"
	sort.SliceStable(recs, func(i, j int) bool {
		cmp := compareValues(recs[i][plan.SortField], recs[j][plan.SortField])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func containsFold(v, term any) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprintf("%v", v)), strings.ToLower(stringValue(term)))
}

func compareWith(operator string, recordVal, condVal any) bool {
	if recordVal == nil {
		return false
	}
	switch operator {
	case OpNeq:
		return compareValues(recordVal, condVal) != 0
	case OpGt:
		return compareValues(recordVal, condVal) > 0
	case OpGte:
		return compareValues(recordVal, condVal) >= 0
	case OpLt:
		return compareValues(recordVal, condVal) < 0
	case OpLte:
		return compareValues(recordVal, condVal) <= 0
	default:
		return compareValues(recordVal, condVal) == 0
	}
}

// compareValues compares numerically when both sides are numbers (or one is a
// number and the other a numeric string), by time
// when both are times, and by string form otherwise.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if isNumber(a) && isNumber(b) {
		return compareNumeric(a, b)
	}
	if fa, fb, ok := numericPair(a, b); ok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func valueInList(val any, list []any) bool {
	for _, item := range list {
		if compareValues(val, item) == 0 {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

// numericPair converts a number and a numeric string to floats.
func numericPair(a, b any) (float64, float64, bool) {
	parse := func(v any) (float64, bool) {
		s, ok := v.(string)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	switch {
	case isNumber(a):
		if fb, ok := parse(b); ok {
			return toFloat(a), fb, true
		}
	case isNumber(b):
		if fa, ok := parse(a); ok {
			return fa, toFloat(b), true
		}
	}
	return 0, 0, false
}

func compareNumeric(a, b any) int {
	fa := toFloat(a)
	fb := toFloat(b)
	if fa < fb {
		return -1
	}
	if fa > fb {
		return 1
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		var f float64
		fmt.Sscanf(fmt.Sprintf("%v", v), "%f", &f)
		return f
	}
}
