package engine

import (
	"sort"
)

// ============================================================================
// AGGREGATORS — Grouping, Snapshot-vs-Sum, Top-N via Table
// ============================================================================
// All functions read through Table with zero-copy access to the query result.
// Grouping produces SubTables (index lists into the parent).
// ============================================================================

// Group is one distinct axis label with per-series sums.
type Group struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"` // one per series column, in series order
	Count  int       `json:"count"`
	View   Table     `json:"-"` // rows in this group (zero-copy)
}

// Point is a named value (pie slice, category total).
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// OtherLabel names the synthetic group that collapses excluded categories.
const OtherLabel = "Other"

// ============================================================================
// GROUPING
// ============================================================================

// GroupSum collapses rows sharing an axis label into one group per label,
// in first-seen order, summing each series column. Values that are not
// numbers add nothing.
func GroupSum(t Table, axis int, cols []int) []Group {
	n := t.Len()
	if n == 0 {
		return nil
	}

	grouped := make(map[string][]int)
	order := make([]string, 0)
	for i := 0; i < n; i++ {
		key := FormatLabel(t.Value(i, axis))
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		view := newSubTable(t, grouped[key])
		values := make([]float64, len(cols))
		for j, col := range cols {
			values[j] = SumColumn(view, col)
		}
		groups = append(groups, Group{
			Label:  key,
			Values: values,
			Count:  view.Len(),
			View:   view,
		})
	}
	return groups
}

// ============================================================================
// SNAPSHOT VS CUMULATIVE
// ============================================================================

// LatestOrSum is the single rule for comparing metrics: when any column is
// time-like the result is a time series and the last row's values are used;
// otherwise each column is summed across all rows.
func LatestOrSum(t Table, cls Classification, cols []int) []float64 {
	out := make([]float64, len(cols))
	n := t.Len()
	if n == 0 {
		return out
	}
	snapshot := cls.HasTimeLike()
	for j, col := range cols {
		if snapshot {
			out[j] = coerceOrZero(t.Value(n-1, col))
		} else {
			out[j] = SumColumn(t, col)
		}
	}
	return out
}

// ============================================================================
// TOP-N + OTHER
// ============================================================================

// TopNWithOther sorts points by value descending and keeps the first n.
// Remaining points collapse into one "Other" point carrying their sum.
// The sort is stable: ties keep their original order.
func TopNWithOther(points []Point, n int) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	if n <= 0 || len(sorted) <= n {
		return sorted
	}

	var rest float64
	for _, p := range sorted[n:] {
		rest += p.Value
	}
	out := make([]Point, 0, n+1)
	out = append(out, sorted[:n]...)
	return append(out, Point{Name: OtherLabel, Value: rest})
}

// ============================================================================
// COLUMN STATISTICS
// ============================================================================

// SumColumn sums a column. Values that are not numbers add 0.
func SumColumn(t Table, col int) float64 {
	var total float64
	for i := 0; i < t.Len(); i++ {
		total += coerceOrZero(t.Value(i, col))
	}
	return total
}

// ColumnValues returns the numeric values of a column in row order,
// skipping cells that are not numbers.
func ColumnValues(t Table, col int) []float64 {
	out := make([]float64, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if f, ok := coerce(t.Value(i, col)); ok {
			out = append(out, f)
		}
	}
	return out
}

// MeanColumn averages the numeric values of a column. Each value is scaled
// before summing so large magnitudes do not overflow.
func MeanColumn(t Table, col int) (float64, bool) {
	vals := ColumnValues(t, col)
	if len(vals) == 0 {
		return 0, false
	}
	n := float64(len(vals))
	var mean float64
	for _, v := range vals {
		mean += v / n
	}
	return mean, true
}

// MinMax returns the smallest and largest of vals.
func MinMax(vals []float64) (min, max float64, ok bool) {
	for i, v := range vals {
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return min, max, len(vals) > 0
}
