package engine

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// GRID BUILDERS — Heatmap, status history and state timeline
// ============================================================================
// These panels lay cells out on a time × category grid. Column roles:
//   time:     first time-like column, else the selected axis
//   category: first categorical, non-time column that is not the time column
//   value:    first numeric, non-time column
// ============================================================================

var statusColors = map[string]string{
	StatusOK:      "hsl(142, 71%, 45%)",
	StatusWarning: "hsl(45, 100%, 51%)",
	StatusError:   "hsl(0, 72%, 51%)",
	StatusUnknown: "hsl(220, 18%, 22%)",
}

var stateColors = []string{
	"hsl(199, 89%, 48%)", "hsl(142, 71%, 45%)", "hsl(24, 100%, 50%)",
	"hsl(280, 100%, 70%)", "hsl(45, 100%, 51%)", "hsl(0, 72%, 51%)",
}

// Status values rendered by the status history panel.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
	StatusUnknown = "unknown"
)

// gridColumns resolves the time, category and value columns. Missing roles are -1.
func gridColumns(cls Classification, xAxisKey string) (timeCol, catCol, valCol int) {
	timeCol = cls.IndexOf(xAxisKey)
	if timeCol < 0 {
		timeCol = cls.FirstTimeLike()
	}
	if timeCol < 0 {
		timeCol = SelectAxis(cls, "")
	}
	catCol = -1
	for _, idx := range cls.Categorical(true) {
		if idx != timeCol {
			catCol = idx
			break
		}
	}
	valCol = -1
	for _, idx := range cls.Numeric(true) {
		if idx != timeCol {
			valCol = idx
			break
		}
	}
	return timeCol, catCol, valCol
}

// ============================================================================
// HEATMAP
// ============================================================================

// BuildHeatmap emits one cell per row. Lightness scales 25–65% over the
// value range.
func BuildHeatmap(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildHeatmap(t, cfg)
}

func buildHeatmap(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelHeatmap)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	timeCol, catCol, valCol := gridColumns(cls, cfg.XAxisKey)
	if valCol < 0 {
		return warn(res, warnNoNumeric)
	}

	lo, hi, _ := MinMax(ColumnValues(t, valCol))
	span := hi - lo
	if span == 0 {
		span = 1
	}

	data := make([]ChartDatum, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		v, ok := coerce(t.Value(i, valCol))
		if !ok {
			continue
		}
		category := cls.Name(valCol)
		if catCol >= 0 {
			category = FormatLabel(t.Value(i, catCol))
		}
		lightness := 25 + (v-lo)/span*40
		data = append(data, ChartDatum{
			"time":     FormatLabel(t.Value(i, timeCol)),
			"category": category,
			"value":    v,
			"color":    fmt.Sprintf("hsl(216, 73%%, %.1f%%)", lightness),
		})
	}

	keys := []SeriesKey{{Key: "value", Name: cls.Name(valCol), Color: "hsl(216, 73%, 45%)"}}
	return fill(res, data, keys, "time")
}

// ============================================================================
// STATUS HISTORY
// ============================================================================

// BuildStatusHistory emits {time, service, status} cells. The status comes
// from a column named status or state, or else from the numeric value
// against the first two thresholds.
func BuildStatusHistory(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildStatusHistory(t, cfg)
}

func buildStatusHistory(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelStatusHistory)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	timeCol, serviceCol, valCol := gridColumns(cls, cfg.XAxisKey)
	statusCol := findNamed(cls, "status", "state")
	if serviceCol == statusCol {
		serviceCol = -1
		for _, idx := range cls.Categorical(true) {
			if idx != timeCol && idx != statusCol {
				serviceCol = idx
				break
			}
		}
	}
	if statusCol < 0 && valCol < 0 {
		return warn(res, "no status or numeric column")
	}

	data := make([]ChartDatum, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		var status string
		if statusCol >= 0 {
			status = NormalizeStatus(t.Value(i, statusCol))
		} else {
			status = statusFromValue(t.Value(i, valCol), cfg.Thresholds)
		}
		service := "value"
		switch {
		case serviceCol >= 0:
			service = FormatLabel(t.Value(i, serviceCol))
		case valCol >= 0:
			service = cls.Name(valCol)
		}
		data = append(data, ChartDatum{
			"time":    FormatLabel(t.Value(i, timeCol)),
			"service": service,
			"status":  status,
			"color":   statusColors[status],
		})
	}

	keys := []SeriesKey{
		{Key: StatusOK, Name: StatusOK, Color: statusColors[StatusOK]},
		{Key: StatusWarning, Name: StatusWarning, Color: statusColors[StatusWarning]},
		{Key: StatusError, Name: StatusError, Color: statusColors[StatusError]},
		{Key: StatusUnknown, Name: StatusUnknown, Color: statusColors[StatusUnknown]},
	}
	return fill(res, data, keys, "time")
}

// NormalizeStatus maps free-form status text onto ok/warning/error/unknown.
func NormalizeStatus(v Value) string {
	if v == nil {
		return StatusUnknown
	}
	switch strings.ToLower(strings.TrimSpace(FormatLabel(v))) {
	case "ok", "up", "healthy", "success", "pass", "passing", "green", "true":
		return StatusOK
	case "warning", "warn", "degraded", "yellow", "pending":
		return StatusWarning
	case "error", "down", "fail", "failed", "failing", "critical", "red", "false":
		return StatusError
	default:
		return StatusUnknown
	}
}

func statusFromValue(v Value, thresholds []float64) string {
	f, ok := coerce(v)
	if !ok {
		return StatusUnknown
	}
	warnAt, errAt := 70.0, 85.0
	if len(thresholds) >= 2 {
		warnAt, errAt = thresholds[0], thresholds[1]
	}
	switch {
	case f >= errAt:
		return StatusError
	case f >= warnAt:
		return StatusWarning
	default:
		return StatusOK
	}
}

// ============================================================================
// STATE TIMELINE
// ============================================================================

// BuildStateTimeline collapses consecutive rows with the same state into
// segments {startTime, endTime, state} positioned as a percent of the
// overall time range.
func BuildStateTimeline(t Table, opts ...Option) *Result {
	t, cfg := prepare(t, opts)
	return buildStateTimeline(t, cfg)
}

func buildStateTimeline(t Table, cfg *config) *Result {
	res := newEmptyResult(PanelStateTimeline)
	if isEmptyTable(t) {
		return res
	}

	cls := classify(t, cfg)
	timeCol, catCol, valCol := gridColumns(cls, cfg.XAxisKey)
	stateCol := findNamed(cls, "state", "status")
	if stateCol < 0 {
		stateCol = catCol
	}
	if stateCol < 0 {
		stateCol = valCol
	}
	if stateCol < 0 {
		return warn(res, "no state column")
	}

	type segment struct {
		start, end float64
		state      string
	}
	var segments []segment
	n := t.Len()
	for i := 0; i < n; i++ {
		at, ok := epochMillis(t.Value(i, timeCol))
		if !ok {
			at = float64(i)
		}
		state := FormatLabel(t.Value(i, stateCol))
		if len(segments) > 0 {
			segments[len(segments)-1].end = at
			if segments[len(segments)-1].state == state {
				continue
			}
		}
		segments = append(segments, segment{start: at, end: at, state: state})
	}

	minTime, maxTime := math.Inf(1), math.Inf(-1)
	for _, s := range segments {
		minTime = math.Min(minTime, s.start)
		maxTime = math.Max(maxTime, s.end)
	}
	span := maxTime - minTime
	if span == 0 {
		span = 1
	}

	colorOf := make(map[string]string)
	palette := cfg.palette(stateColors)
	var keys []SeriesKey
	data := make([]ChartDatum, 0, len(segments))
	for _, s := range segments {
		color, seen := colorOf[s.state]
		if !seen {
			color = colorAt(palette, len(colorOf))
			colorOf[s.state] = color
			keys = append(keys, SeriesKey{Key: s.state, Name: s.state, Color: color})
		}
		data = append(data, ChartDatum{
			"startTime": s.start,
			"endTime":   s.end,
			"state":     s.state,
			"value":     s.state,
			"color":     color,
			"x":         (s.start - minTime) / span * 100,
			"width":     (s.end - s.start) / span * 100,
		})
	}
	return fill(res, data, keys, "startTime")
}

// findNamed returns the first column whose lower-cased name equals one of names.
func findNamed(cls Classification, names ...string) int {
	for _, want := range names {
		for _, col := range cls.Columns {
			if col.Kind != KindNone && strings.EqualFold(col.Name, want) {
				return col.Index
			}
		}
	}
	return -1
}
