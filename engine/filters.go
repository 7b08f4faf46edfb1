package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Column-Value Row Filtering via Table
// ============================================================================
// Single-pass filter: checks ALL column constraints per row in one loop.
// Returns a SubTable (index list into parent), zero data copy.
// ============================================================================

// ApplyFilters returns a view of rows matching all column filters.
// Columns are AND-combined; values within a column are OR-combined and
// compared case-insensitively against the stringified cell.
// A filter on a column that does not exist matches no rows.
func ApplyFilters(t Table, filters Filters) Table {
	if filters.IsEmpty() {
		return t
	}

	index := make(map[string]int)
	for i, name := range t.ColumnNames() {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	type constraint struct {
		col     int
		allowed map[string]bool
	}
	var constraints []constraint
	for name, allowed := range filters.Columns {
		if len(allowed) == 0 {
			continue
		}
		col, ok := index[name]
		if !ok {
			return newSubTable(t, []int{})
		}
		constraints = append(constraints, constraint{col: col, allowed: toLowerSet(allowed)})
	}

	n := t.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for _, c := range constraints {
			if !c.allowed[strings.ToLower(FormatLabel(t.Value(i, c.col)))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubTable(t, indices)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
