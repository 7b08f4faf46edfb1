package engine

import "math"

// ============================================================================
// CHART BUILDER — Bar, time series, pie, histogram and XY panel data
// ============================================================================
// Every builder follows the same shape:
//   classify → select axis/series → aggregate or bucket → ChartDatum rows
// Empty or unusable input returns an empty Result, never an error.
// ============================================================================

// Grafana's classic series palette (bar, time series, XY).
var grafanaPalette = []string{
	"#7EB26D", "#EAB839", "#6ED0E0", "#EF843C", "#E24D42",
	"#1F78C1", "#BA43A9", "#705DA0", "#508642", "#CCA300",
}

// Pie slice palette.
var pieColors = []string{
	"hsl(199, 89%, 48%)", "hsl(142, 71%, 45%)", "hsl(45, 100%, 51%)",
	"hsl(280, 100%, 70%)", "hsl(0, 72%, 51%)", "hsl(24, 100%, 50%)",
}

// Histogram overlay palette.
var histogramColors = []string{
	"hsl(142, 71%, 45%)", "hsl(24, 100%, 50%)", "hsl(199, 89%, 48%)", "hsl(280, 100%, 70%)",
}

const warnNoNumeric = "no numeric columns"

// ============================================================================
// BAR
// ============================================================================

// BuildBar groups rows by the axis label and sums every numeric series.
func BuildBar(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildBar(t, cfg)
}

func buildBar(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelBar)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	axis := SelectAxis(cls, cfg.XAxisKey)
	cols, keys := SelectSeries(cls, axis, false, cfg.palette(grafanaPalette))
	if len(cols) == 0 {
		return warn(res, warnNoNumeric)
	}

	groups := GroupSum(t, axis, cols)
	data := make([]ChartDatum, 0, len(groups))
	for _, g := range groups {
		d := ChartDatum{"name": g.Label}
		for j, k := range keys {
			d[k.Key] = g.Values[j]
		}
		data = append(data, d)
	}

	return fill(res, data, keys, "name")
}

// ============================================================================
// TIME SERIES
// ============================================================================

// BuildTimeSeries emits one datum per row against a time axis when one
// exists. Rows are not grouped; missing values stay null.
func BuildTimeSeries(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildTimeSeries(t, cfg)
}

func buildTimeSeries(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelTimeSeries)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	axis := cls.IndexOf(cfg.XAxisKey)
	if axis < 0 {
		axis = cls.FirstTimeLike()
	}
	if axis < 0 {
		axis = SelectAxis(cls, "")
	}
	cols, keys := SelectSeries(cls, axis, false, cfg.palette(grafanaPalette))
	if len(cols) == 0 {
		return warn(res, warnNoNumeric)
	}

	timeAxis := cls.Columns[axis].TimeLike
	data := make([]ChartDatum, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		cell := t.Value(i, axis)
		d := ChartDatum{"name": FormatLabel(cell)}
		if timeAxis {
			if ms, ok := epochMillis(cell); ok {
				d["timestamp"] = ms
			}
		}
		for j, k := range keys {
			d[k.Key] = nullableNumber(t.Value(i, cols[j]))
		}
		data = append(data, d)
	}

	return fill(res, data, keys, "name")
}

// ============================================================================
// PIE
// ============================================================================

// BuildPie renders either a metric comparison (two or more numeric columns,
// latest-or-sum per column) or a category breakdown (one numeric column
// summed per label, top N kept, the rest collapsed into "Other").
func BuildPie(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildPie(t, cfg)
}

func buildPie(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelPie)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	numeric := cls.Numeric(true)
	if len(numeric) == 0 {
		return warn(res, warnNoNumeric)
	}

	var points []Point
	valueName := "value"
	if len(numeric) >= 2 {
		values := LatestOrSum(t, cls, numeric)
		for j, col := range numeric {
			points = append(points, Point{Name: cls.Name(col), Value: values[j]})
		}
	} else {
		valueCol := numeric[0]
		valueName = cls.Name(valueCol)
		axis := SelectAxis(cls, cfg.XAxisKey)
		if axis == valueCol && cls.Len() > 1 {
			axis = 0
			if valueCol == 0 {
				axis = 1
			}
		}
		for _, g := range GroupSum(t, axis, []int{valueCol}) {
			points = append(points, Point{Name: g.Label, Value: g.Values[0]})
		}
		points = TopNWithOther(points, cfg.TopN)
	}

	palette := cfg.palette(pieColors)
	data := make([]ChartDatum, 0, len(points))
	for i, p := range points {
		data = append(data, ChartDatum{
			"name":  p.Name,
			"value": p.Value,
			"color": colorAt(palette, i),
		})
	}
	keys := []SeriesKey{{Key: "value", Name: valueName, Color: colorAt(palette, 0)}}
	return fill(res, data, keys, "name")
}

// ============================================================================
// HISTOGRAM
// ============================================================================

// BuildHistogram buckets every numeric, non-time column on one shared scale.
func BuildHistogram(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildHistogram(t, cfg)
}

func buildHistogram(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelHistogram)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	cols, keys := SelectSeries(cls, -1, true, cfg.palette(histogramColors))
	if len(cols) == 0 {
		return warn(res, warnNoNumeric)
	}

	buckets := Bucketize(t, cols, HistogramBuckets)
	if len(buckets) == 0 {
		return warn(res, "no numeric values")
	}

	data := make([]ChartDatum, 0, len(buckets))
	for _, b := range buckets {
		d := ChartDatum{"range": b.Range, "min": b.Min, "max": b.Max}
		for j, k := range keys {
			d[k.Key] = b.Counts[j]
		}
		data = append(data, d)
	}
	return fill(res, data, keys, "range")
}

// ============================================================================
// XY
// ============================================================================

// BuildXY plots numeric series against a numeric x. With two or more numeric
// columns the first is x. With exactly one, x is the first time-like column
// in epoch milliseconds, or the row index. XKey is always "x"; XLabel names
// where x came from.
func BuildXY(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildXY(t, cfg)
}

func buildXY(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelXY)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	numeric := cls.Numeric(false)
	palette := cfg.palette(grafanaPalette)

	var xOf func(row int) any
	var xLabel string
	var cols []int
	var keys []SeriesKey

	switch {
	case len(numeric) >= 2:
		xCol := numeric[0]
		if idx := cls.IndexOf(cfg.XAxisKey); idx >= 0 && cls.Columns[idx].Numeric() {
			xCol = idx
		}
		xLabel = cls.Name(xCol)
		cols, keys = SelectSeries(cls, xCol, false, palette)
		xOf = func(row int) any { return nullableNumber(t.Value(row, xCol)) }

	case len(numeric) == 1 && !cls.Columns[numeric[0]].TimeLike:
		cols, keys = SelectSeries(cls, -1, false, palette)
		if timeCol := cls.FirstTimeLike(); timeCol >= 0 {
			xLabel = cls.Name(timeCol)
			xOf = func(row int) any {
				if ms, ok := epochMillis(t.Value(row, timeCol)); ok {
					return ms
				}
				return nil
			}
		} else {
			xLabel = "index"
			xOf = func(row int) any { return row }
		}

	default:
		return warn(res, warnNoNumeric)
	}

	data := make([]ChartDatum, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		d := ChartDatum{"x": xOf(i)}
		for j, k := range keys {
			d[k.Key] = nullableNumber(t.Value(i, cols[j]))
		}
		data = append(data, d)
	}
	res.XLabel = xLabel
	return fill(res, data, keys, "x")
}

// ============================================================================
// HELPERS
// ============================================================================

// prepare applies options, row filters and the column projection.
func prepare(t Table, opts []Option) (Table, *config) {
	cfg := applyOptions(opts)
	return narrow(t, cfg), cfg
}

func narrow(t Table, cfg *config) Table {
	if t == nil {
		return nil
	}
	return SelectColumns(ApplyFilters(t, cfg.Filters), cfg.Columns...)
}

// nullableNumber returns the coerced value, or nil when it is not a number.
func nullableNumber(v Value) any {
	if f, ok := coerce(v); ok {
		return f
	}
	return nil
}

func fill(res *Result, data []ChartDatum, keys []SeriesKey, xKey string) *Result {
	if finiteData(data) > 0 {
		warn(res, "non-finite values replaced with null")
	}
	res.Data = data
	res.SeriesKeys = keys
	res.XKey = xKey
	res.Empty = len(data) == 0
	return res
}

// finiteData nulls every float64 that is NaN or infinite, which sums of very
// large values can produce. Returns how many were replaced.
func finiteData(data []ChartDatum) int {
	n := 0
	for _, d := range data {
		for k, v := range d {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				d[k] = nil
				n++
			}
		}
	}
	return n
}

func warn(res *Result, msg string) *Result {
	res.Warnings = append(res.Warnings, msg)
	return res
}
