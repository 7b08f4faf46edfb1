package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a query result
// ============================================================================
// Column types come from the classifier: numbers align right, time-like
// columns are typed "time", everything else is text.
// ============================================================================

// BuildTable renders every row with typed columns and numeric totals.
func BuildTable(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildTable(t, cfg)
}

func buildTable(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelTable)
	res.Table = &TableData{
		Title:   cfg.Title,
		Columns: []Column{},
		Rows:    [][]string{},
	}
	if t == nil || len(t.ColumnNames()) == 0 {
		return res
	}

	cls := classify(t, cfg)
	columns := make([]Column, 0, cls.Len())
	for _, c := range cls.Columns {
		col := Column{Key: c.Name, Label: LabelForColumn(c.Name), Type: "text", Align: "left"}
		switch {
		case c.TimeLike:
			col.Type = "time"
		case c.Numeric():
			col.Type = "number"
			col.Align = "right"
		}
		columns = append(columns, col)
	}
	res.Table.Columns = columns

	n := t.Len()
	rows := make([][]string, 0, n)
	data := make([]ChartDatum, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(columns))
		d := make(ChartDatum, len(columns))
		for j, c := range columns {
			v := t.Value(i, j)
			row[j] = cellText(v)
			d[c.Key] = v
		}
		rows = append(rows, row)
		data = append(data, d)
	}
	res.Table.Rows = rows

	totals := make(map[string]string)
	for j, c := range columns {
		if c.Type == "number" {
			totals[c.Key] = FormatNumber(SumColumn(t, j))
		}
	}
	if len(totals) > 0 && n > 0 {
		res.Table.Summary = &Summary{
			Label:  fmt.Sprintf("Total (%d rows)", n),
			Values: totals,
		}
	}

	keys := make([]SeriesKey, 0, len(columns))
	for _, c := range columns {
		keys = append(keys, SeriesKey{Key: c.Key, Name: c.Label})
	}
	return fill(res, data, keys, "")
}
