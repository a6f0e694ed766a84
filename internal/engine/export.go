package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Exporter is implemented by sources that can load a whole filtered list at once.
type Exporter interface {
	Export(ctx context.Context, params ListParams, limit int) ([]map[string]any, error)
}

// exportRecords loads every record matching params, up to limit. Sources
// without a bulk path are paged through Query.
func exportRecords(ctx context.Context, src DataSource, params ListParams, limit int) ([]map[string]any, error) {
	if ex, ok := src.(Exporter); ok {
		return ex.Export(ctx, params, limit)
	}

	var out []map[string]any
	params.Page = 1
	params.PageSize = src.DefaultPageSize()
	for len(out) < limit {
		res, err := src.Query(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if !res.HasNext() {
			break
		}
		params.Page = res.Page + 1
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WriteXLSX renders records as a single-sheet workbook with one column per
// list column and a header row of labels.
func WriteXLSX(src DataSource, columns Columns, records []map[string]any) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := src.Identifier()
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, c.Label); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for r, rec := range records {
		for i, c := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(src.ItemValue(rec, c.Name))); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case RelationValue:
		if val.Label != nil {
			return fmt.Sprintf("%v", val.Label)
		}
		return fmt.Sprintf("%v", val.ID)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string, bool, int, int64, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
