package engine

import (
	"fmt"
	"strings"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

const baseAlias = "t"

type QueryResult struct {
	SQL    string
	Params []any
}

// BuildSelectSQL builds a parameterized SELECT for the plan's current page.
func BuildSelectSQL(d store.Dialect, entity *metadata.Entity, plan *QueryPlan) QueryResult {
	pb := d.NewParamBuilder()

	cols := make([]string, len(entity.Fields))
	for i, f := range entity.Fields {
		cols[i] = baseAlias + "." + f.Name
	}

	sql := fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(cols, ", "), entity.Table, baseAlias)
	sql += buildJoins(plan)
	if where := buildWhere(d, pb, entity, plan); where != "" {
		sql += " WHERE " + where
	}

	pk := baseAlias + "." + entity.PrimaryKey.Field
	if plan.SortField != "" {
		sql += fmt.Sprintf(" ORDER BY %s.%s %s", baseAlias, plan.SortField, plan.SortDir)
		if plan.SortField != entity.PrimaryKey.Field {
			sql += ", " + pk + " ASC"
		}
	} else {
		sql += " ORDER BY " + pk + " ASC"
	}

	limit := pb.Add(plan.PageSize)
	offset := pb.Add(plan.Offset())
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildCountSQL builds a COUNT query with the same joins and predicates as the select.
func BuildCountSQL(d store.Dialect, entity *metadata.Entity, plan *QueryPlan) QueryResult {
	pb := d.NewParamBuilder()

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", entity.Table, baseAlias)
	sql += buildJoins(plan)
	if where := buildWhere(d, pb, entity, plan); where != "" {
		sql += " WHERE " + where
	}
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildFindSQL selects one live record by primary key.
func BuildFindSQL(d store.Dialect, entity *metadata.Entity, id any) QueryResult {
	pb := d.NewParamBuilder()
	cols := make([]string, len(entity.Fields))
	for i, f := range entity.Fields {
		cols[i] = baseAlias + "." + f.Name
	}
	sql := fmt.Sprintf("SELECT %s FROM %s %s WHERE %s.%s = %s",
		strings.Join(cols, ", "), entity.Table, baseAlias, baseAlias, entity.PrimaryKey.Field, pb.Add(id))
	if entity.SoftDelete {
		sql += fmt.Sprintf(" AND %s.deleted_at IS NULL", baseAlias)
	}
	return QueryResult{SQL: sql, Params: pb.Params()}
}

func joinAlias(name string) string {
	return "r_" + name
}

func buildJoins(plan *QueryPlan) string {
	var sb strings.Builder
	seen := make(map[string]bool)
	for _, c := range plan.Conditions {
		if c.Kind != CondRelation || c.Join == nil || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		alias := joinAlias(c.Name)
		fmt.Fprintf(&sb, " LEFT JOIN %s %s ON %s.%s = %s.%s",
			c.Join.Table, alias, alias, c.Join.Key, baseAlias, c.Join.ForeignKey)
	}
	return sb.String()
}

func buildWhere(d store.Dialect, pb store.ParamBuilder, entity *metadata.Entity, plan *QueryPlan) string {
	var where []string
	if entity.SoftDelete {
		where = append(where, baseAlias+".deleted_at IS NULL")
	}
	for _, c := range plan.Conditions {
		if clause := conditionSQL(d, pb, c); clause != "" {
			where = append(where, clause)
		}
	}
	return strings.Join(where, " AND ")
}

func conditionSQL(d store.Dialect, pb store.ParamBuilder, c Condition) string {
	col := baseAlias + "." + c.Field

	switch c.Kind {
	case CondSearch:
		pattern := store.EscapeLike(stringValue(c.Value))
		parts := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			parts[i] = d.ContainsExpr(baseAlias+"."+f, pb.Add(pattern))
		}
		return "(" + strings.Join(parts, " OR ") + ")"

	case CondContains:
		return d.ContainsExpr(col, pb.Add(store.EscapeLike(stringValue(c.Value))))

	case CondCompare:
		op := c.Operator
		if !ValidOperator(op) || op == OpLike || op == OpBetween || op == OpIn {
			op = OpEq
		}
		return fmt.Sprintf("%s %s %s", col, op, pb.Add(c.Value))

	case CondIn:
		return d.InExpr(col, pb, c.Values)

	case CondRange:
		expr := d.DateExpr(col)
		var parts []string
		if c.From != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", expr, pb.Add(d.TimeParam(*c.From))))
		}
		if c.To != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", expr, pb.Add(d.TimeParam(*c.To))))
		}
		return strings.Join(parts, " AND ")

	case CondRelation:
		pattern := store.EscapeLike(stringValue(c.Value))
		if c.Join == nil {
			return d.ContainsExpr(col, pb.Add(pattern))
		}
		alias := joinAlias(c.Name)
		parts := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			parts[i] = d.ContainsExpr(alias+"."+f, pb.Add(pattern))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}
	return ""
}
