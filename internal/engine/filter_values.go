package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// isList reports whether v is a structured list or a JSON-encoded array.
func isList(v any) bool {
	switch val := v.(type) {
	case []any, []string, []int, []int64, []float64:
		return true
	case string:
		s := strings.TrimSpace(val)
		if !strings.HasPrefix(s, "[") {
			return false
		}
		var decoded []any
		return json.Unmarshal([]byte(s), &decoded) == nil
	}
	return false
}

// parseList accepts a structured list or a JSON array string. A string that
// does not decode is treated as a single-element list. Blank items are dropped.
func parseList(v any) []any {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case []int:
		for _, n := range val {
			items = append(items, n)
		}
	case []int64:
		for _, n := range val {
			items = append(items, n)
		}
	case []float64:
		for _, n := range val {
			items = append(items, n)
		}
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(val), &decoded); err == nil {
			items = decoded
		} else {
			items = []any{val}
		}
	default:
		items = []any{val}
	}

	out := items[:0:0]
	for _, item := range items {
		if !isBlank(item) {
			out = append(out, item)
		}
	}
	return out
}

// coerceValue converts an incoming filter value to the given scalar type.
func coerceValue(valueType string, v any) (any, bool) {
	switch valueType {
	case "integer":
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int64:
			return n, true
		case float64:
			if n != math.Trunc(n) {
				return nil, false
			}
			return int64(n), true
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			return i, err == nil
		}
		return nil, false
	case "decimal":
		switch n := v.(type) {
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case float64:
			return n, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			return f, err == nil
		}
		return nil, false
	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return parsed, err == nil
		case float64:
			return b != 0, true
		case int:
			return b != 0, true
		}
		return nil, false
	default:
		return stringValue(v), true
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Second)
}

// parseDay returns the [00:00:00, 23:59:59] bounds of the day the value falls on.
func parseDay(v any) (time.Time, time.Time, bool) {
	t, ok := parseTime(v)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return startOfDay(t), endOfDay(t), true
}

// parseDateRange reads a {from, to} object or its JSON encoding. Each side
// is optional; a side that does not parse is dropped.
func parseDateRange(v any) (*time.Time, *time.Time, bool) {
	var rng map[string]any
	switch val := v.(type) {
	case map[string]any:
		rng = val
	case map[string]string:
		rng = make(map[string]any, len(val))
		for k, s := range val {
			rng[k] = s
		}
	case string:
		if err := json.Unmarshal([]byte(val), &rng); err != nil {
			return nil, nil, false
		}
	default:
		return nil, nil, false
	}

	var from, to *time.Time
	if raw, ok := rng["from"]; ok && !isBlank(raw) {
		if t, ok := parseTime(raw); ok {
			start := startOfDay(t)
			from = &start
		}
	}
	if raw, ok := rng["to"]; ok && !isBlank(raw) {
		if t, ok := parseTime(raw); ok {
			end := endOfDay(t)
			to = &end
		}
	}
	if from == nil && to == nil {
		return nil, nil, false
	}
	return from, to, true
}
