package engine

import (
	"fmt"
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"rocket-admin/internal/metadata"
)

// computedColumn is a virtual column evaluated per record with expr-lang.
// The expression sees the record as `record`.
type computedColumn struct {
	column  ColumnDescriptor
	program *vm.Program
}

// compileComputed compiles every computed column of the admin config once.
func compileComputed(defs []metadata.ComputedColumn) ([]computedColumn, error) {
	out := make([]computedColumn, 0, len(defs))
	for _, def := range defs {
		prog, err := expr.Compile(def.Expression, expr.Env(map[string]any{"record": map[string]any{}}))
		if err != nil {
			return nil, fmt.Errorf("compile computed column %s: %w", def.Name, err)
		}
		t := ColumnType(def.Type)
		if t == "" {
			t = ColumnString
		}
		out = append(out, computedColumn{
			column: ColumnDescriptor{
				Name:     def.Name,
				Label:    firstNonEmpty(def.Label, humanize(def.Name)),
				Type:     t,
				Template: def.Template,
				Virtual:  true,
			},
			program: prog,
		})
	}
	return out, nil
}

func (c computedColumn) eval(rec map[string]any) any {
	v, err := expr.Run(c.program, map[string]any{"record": rec})
	if err != nil {
		log.Printf("WARN: computed column %s: %v", c.column.Name, err)
		return nil
	}
	return v
}

// applyComputed sets every computed value on each record.
func applyComputed(cols []computedColumn, recs []map[string]any) {
	if len(cols) == 0 {
		return
	}
	for _, rec := range recs {
		for _, c := range cols {
			rec[c.column.Name] = c.eval(rec)
		}
	}
}
