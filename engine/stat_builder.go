package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// SINGLE-VALUE BUILDERS — Stat and Gauge
// ============================================================================
// Both read one column (SelectSingleValue) at the LAST row.
// ============================================================================

// Gauge band colors by percent of range.
const (
	gaugeColorLow       = "hsl(142, 71%, 45%)"
	gaugeColorMid       = "hsl(45, 100%, 51%)"
	gaugeColorHigh      = "hsl(0, 72%, 51%)"
	gaugeColorRemaining = "hsl(220, 18%, 22%)"
)

// sparklineMidpoint is used for every point of a flat series.
const sparklineMidpoint = 50

// ============================================================================
// STAT
// ============================================================================

// BuildStat produces the latest value of the selected column, a sparkline
// normalized to [0, 100] and the trend versus the column mean.
func BuildStat(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildStat(t, cfg)
}

func buildStat(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelStat)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	col := SelectSingleValue(cls)
	value, ok := LatestValue(t, col)
	res.Column = cls.Name(col)
	if !ok {
		return warn(res, "latest value is not numeric")
	}

	res.Value = &value
	res.Unit = cfg.Unit
	res.DisplayValue = FormatNumber(value) + cfg.Unit
	res.Sparkline = Sparkline(t, col)
	res.Trend, res.TrendValue = trendOf(t, col, value)
	res.Data = []ChartDatum{{"name": res.Column, "value": value}}
	res.SeriesKeys = []SeriesKey{{Key: "value", Name: res.Column, Color: colorAt(cfg.palette(grafanaPalette), 0)}}
	res.Empty = false
	return res
}

// Sparkline normalizes a column to [0, 100] in row order. Values that are
// not numbers count as 0. A flat series maps every point to 50.
// Returns nil for fewer than two rows.
func Sparkline(t Table, col int) []float64 {
	n := t.Len()
	if n < 2 || col < 0 {
		return nil
	}
	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = coerceOrZero(t.Value(i, col))
	}

	lo, hi, _ := MinMax(raw)
	span := hi - lo
	out := make([]float64, n)
	for i, v := range raw {
		switch {
		case span == 0:
			out[i] = sparklineMidpoint
		case math.IsInf(span, 0):
			out[i] = (v/2 - lo/2) / (hi/2 - lo/2) * 100
		default:
			out[i] = (v - lo) / span * 100
		}
	}
	return out
}

// trendOf compares the latest value with the column mean.
func trendOf(t Table, col int, latest float64) (string, string) {
	mean, ok := MeanColumn(t, col)
	if !ok || t.Len() < 2 {
		return "neutral", "0.0%"
	}
	direction := "neutral"
	switch {
	case latest > mean:
		direction = "up"
	case latest < mean:
		direction = "down"
	}
	if mean == 0 {
		return direction, "0.0%"
	}
	return direction, fmt.Sprintf("%.1f%%", (latest-mean)/math.Abs(mean)*100)
}

// ============================================================================
// GAUGE
// ============================================================================

// BuildGauge maps the latest value onto the configured range as a percent
// clamped to [0, 100] and colors it by band.
func BuildGauge(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildGauge(t, cfg)
}

func buildGauge(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelGauge)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	col := SelectSingleValue(cls)
	value, ok := LatestValue(t, col)
	res.Column = cls.Name(col)
	if !ok {
		return warn(res, "latest value is not numeric")
	}

	unit := cfg.Unit
	if unit == "" {
		unit = "%"
	}
	pct := GaugePercent(value, cfg.GaugeMin, cfg.GaugeMax)
	color := GaugeColor(pct)
	lo, hi := cfg.GaugeMin, cfg.GaugeMax

	res.Value = &value
	res.Unit = unit
	res.DisplayValue = FormatNumber(value) + unit
	res.Percent = &pct
	res.Min = &lo
	res.Max = &hi
	res.Color = color
	res.Thresholds = cfg.Thresholds
	res.Data = []ChartDatum{
		{"name": "value", "value": pct, "color": color},
		{"name": "remaining", "value": 100 - pct, "color": gaugeColorRemaining},
	}
	res.SeriesKeys = []SeriesKey{{Key: "value", Name: res.Column, Color: color}}
	res.Empty = false
	return res
}

// GaugePercent is (v-min)/(max-min)*100 clamped to [0, 100].
// A zero-width range is treated as width 1.
func GaugePercent(v, min, max float64) float64 {
	span := max - min
	if span == 0 {
		span = 1
	}
	pct := (v - min) / span * 100
	if math.IsInf(span, 0) || math.IsInf(v-min, 0) {
		pct = (v/2 - min/2) / (max/2 - min/2) * 100
	}
	if math.IsNaN(pct) {
		return 0
	}
	return math.Max(0, math.Min(100, pct))
}

// GaugeColor picks the band color for a percent.
func GaugeColor(pct float64) string {
	switch {
	case pct < 30:
		return gaugeColorLow
	case pct < 70:
		return gaugeColorMid
	default:
		return gaugeColorHigh
	}
}
