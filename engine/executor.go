package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// EXECUTOR — Panel Dispatcher
// ============================================================================
// Entry point: Transform(panel, table, opts...)
//
// Pipeline:
//   1. Resolve the panel type (canonical name or alias)
//   2. Substitute sample data for empty input when enabled
//   3. Apply row filters → SubTable
//   4. Dispatch to the panel builder
//
// Pure and synchronous. The engine reads query results through Table and
// never mutates them.
// ============================================================================

// Canonical panel type identifiers.
const (
	PanelBar           = "barchart"
	PanelTimeSeries    = "timeseries"
	PanelPie           = "piechart"
	PanelHistogram     = "histogram"
	PanelXY            = "xychart"
	PanelGauge         = "gauge"
	PanelStat          = "stat"
	PanelTable         = "table"
	PanelHeatmap       = "heatmap"
	PanelStatusHistory = "statushistory"
	PanelStateTimeline = "statetimeline"
)

// ErrUnsupportedPanel is returned for panel types with no builder.
var ErrUnsupportedPanel = errors.New("unsupported panel type")

type builderFunc func(Table, *config) *Result

var builders = map[string]builderFunc{
	PanelBar:           buildBar,
	PanelTimeSeries:    buildTimeSeries,
	PanelPie:           buildPie,
	PanelHistogram:     buildHistogram,
	PanelXY:            buildXY,
	PanelGauge:         buildGauge,
	PanelStat:          buildStat,
	PanelTable:         buildTable,
	PanelHeatmap:       buildHeatmap,
	PanelStatusHistory: buildStatusHistory,
	PanelStateTimeline: buildStateTimeline,
}

var panelAliases = map[string]string{
	"bar":            PanelBar,
	"line":           PanelTimeSeries,
	"graph":          PanelTimeSeries,
	"pie":            PanelPie,
	"xy":             PanelXY,
	"scatter":        PanelXY,
	"status-history": PanelStatusHistory,
	"state-timeline": PanelStateTimeline,
}

// NormalizePanel resolves a panel name or alias to its canonical identifier.
func NormalizePanel(panel string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(panel))
	if canonical, ok := panelAliases[p]; ok {
		p = canonical
	}
	if _, ok := builders[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPanel, panel)
	}
	return p, nil
}

// SupportedPanels lists the canonical panel identifiers, sorted.
func SupportedPanels() []string {
	out := make([]string, 0, len(builders))
	for p := range builders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Transform shapes a table for the given panel type.
// Malformed data never produces an error; only an unknown panel type does.
//
// Options:
//   - WithXAxisKey(key): explicit axis column
//   - WithFilters(f): row filter
//   - WithColumns(names...): column projection
//   - WithSampleFallback(): sample data for empty input
//   - WithGaugeRange, WithUnit, WithThresholds: single-value panels
func Transform(panel string, t Table, opts ...Option) (*Result, error) {
	p, err := NormalizePanel(panel)
	if err != nil {
		return nil, err
	}

	cfg := applyOptions(opts)
	if isEmptyTable(t) {
		if cfg.SampleFallback {
			res := builders[p](SampleResult(p), cfg)
			res.Sample = true
			return res, nil
		}
		return builders[p](t, cfg), nil
	}

	return builders[p](narrow(t, cfg), cfg), nil
}
