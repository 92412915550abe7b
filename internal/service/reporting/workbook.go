package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

const workbookSheet = "Sheet1"

// buildWorkbook lays every context out as one column, flattened keys as rows.
func buildWorkbook(contexts []models.ReportContext) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	flat := make([]map[string]any, len(contexts))
	keySet := map[string]struct{}{}
	for i, reportCtx := range contexts {
		flat[i] = map[string]any{}
		flatten("", map[string]any(reportCtx), flat[i])
		for k := range flat[i] {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := f.SetCellValue(workbookSheet, "A1", "Field"); err != nil {
		return nil, err
	}
	for col := range flat {
		cell, err := excelize.CoordinatesToCellName(col+2, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(workbookSheet, cell, fmt.Sprintf("Record %d", col+1)); err != nil {
			return nil, err
		}
	}

	for row, key := range keys {
		if err := f.SetCellValue(workbookSheet, fmt.Sprintf("A%d", row+2), key); err != nil {
			return nil, err
		}
		for col, values := range flat {
			value, ok := values[key]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+2, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(workbookSheet, cell, cellValue(value)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flatten(key, nested, out)
		case models.ReportContext:
			flatten(key, nested, out)
		case models.Deltas:
			flatten(key, nested, out)
		case models.Instance:
			// records are exposed through their dedicated keys
			continue
		default:
			out[key] = v
		}
	}
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float32, float64:
		return val
	case *float64:
		if val == nil {
			return ""
		}
		return *val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
