// Package table holds the in-memory representation of a rectangular range of
// spreadsheet values: a header row of field names, and the remaining rows as
// string records aligned positionally with that header.
package table

import (
	"fmt"
	"strconv"
)

type Table struct {
	Fields []string
	Rows   [][]string
}

// FromValues reshapes a raw range result into a Table. The first row becomes
// the header and all following rows become records. Rows are not validated
// against the header width: short or long rows pass through as-is.
func FromValues(values [][]any) Table {
	if len(values) == 0 {
		return Table{}
	}

	fields := make([]string, len(values[0]))
	for i, v := range values[0] {
		fields[i] = formatCell(v)
	}

	rows := make([][]string, 0, len(values)-1)
	for _, in := range values[1:] {
		row := make([]string, len(in))
		for i, v := range in {
			row[i] = formatCell(v)
		}
		rows = append(rows, row)
	}

	return Table{Fields: fields, Rows: rows}
}

func (t Table) NumRecords() int {
	return len(t.Rows)
}

func (t Table) IsEmpty() bool {
	return len(t.Fields) == 0 && len(t.Rows) == 0
}

// formatCell renders a single cell value to its string form. The Sheets API
// returns cells as interface{} values which are strings for the common
// "formatted value" render option, but numbers and booleans can show up when
// other render options are in play.
func formatCell(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
