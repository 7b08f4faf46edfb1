package engine

// ============================================================================
// SERIES EXTRACTOR — Axis and value column selection
// ============================================================================
// Two modes:
//   single-value (stat, gauge): one numeric column, value from the LAST row
//   multi-series (bar, pie, histogram, XY): one axis column plus every
//     remaining numeric column as a series, colored by palette index
// ============================================================================

// SelectSingleValue picks the column for stat/gauge panels: first numeric
// non-time column, else first numeric column, else the last column.
// Returns -1 only when there are no columns.
func SelectSingleValue(cls Classification) int {
	if cls.Len() == 0 {
		return -1
	}
	if cols := cls.Numeric(true); len(cols) > 0 {
		return cols[0]
	}
	if cols := cls.Numeric(false); len(cols) > 0 {
		return cols[0]
	}
	return cls.Len() - 1
}

// LatestValue returns the column's value in the last row.
// Latest-row-wins is fixed: never max, never first.
func LatestValue(t Table, col int) (float64, bool) {
	n := t.Len()
	if n == 0 || col < 0 {
		return 0, false
	}
	return coerce(t.Value(n-1, col))
}

// SelectAxis picks the axis column by precedence:
//
//	(a) xAxisKey when present in the columns
//	(b) first categorical column that is not time-like
//	(c) first categorical column, time-like included
//	(d) first time-like column
//	(e) column 0
//
// Returns -1 only when there are no columns.
func SelectAxis(cls Classification, xAxisKey string) int {
	if cls.Len() == 0 {
		return -1
	}
	if idx := cls.IndexOf(xAxisKey); idx >= 0 {
		return idx
	}
	if cols := cls.Categorical(true); len(cols) > 0 {
		return cols[0]
	}
	if cols := cls.Categorical(false); len(cols) > 0 {
		return cols[0]
	}
	if idx := cls.FirstTimeLike(); idx >= 0 {
		return idx
	}
	return 0
}

// SelectSeries returns every numeric column other than axis, in column
// order, with palette colors cycling by series index.
func SelectSeries(cls Classification, axis int, excludeTime bool, palette []string) ([]int, []SeriesKey) {
	var cols []int
	var keys []SeriesKey
	for _, idx := range cls.Numeric(excludeTime) {
		if idx == axis {
			continue
		}
		name := cls.Name(idx)
		keys = append(keys, SeriesKey{
			Key:   name,
			Name:  name,
			Color: colorAt(palette, len(keys)),
		})
		cols = append(cols, idx)
	}
	return cols, keys
}

// colorAt cycles the palette by index modulo its length.
func colorAt(palette []string, i int) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[i%len(palette)]
}
