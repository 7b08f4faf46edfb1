package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/spektr-org/nexus/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Column profiling over the engine classification
// ============================================================================
// Per column:
//   1. engine.Classify → kind and base role (time, numeric, categorical, skip)
//   2. Sampled values → null count, unique count, sample values
//   3. Cardinality → demote identifiers and free text to skipped
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect for statistics (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Profile name override
	NumericText    bool     // numeric strings classify as numbers
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Discover profiles every column of a table.
// Empty input yields a profile with no columns.
func Discover(t engine.Table, opts ...DiscoverOptions) *Profile {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	profile := &Profile{
		Name:         opt.Name,
		Columns:      []ColumnProfile{},
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if profile.Name == "" {
		profile.Name = "Query Result"
	}
	if t == nil {
		return profile
	}

	limit := t.Len()
	if opt.SampleSize > 0 && opt.SampleSize < limit {
		limit = opt.SampleSize
	}
	profile.RowCount = limit

	var engineOpts []engine.Option
	if opt.NumericText {
		engineOpts = append(engineOpts, engine.WithNumericText())
	}
	cls := engine.Classify(t, engineOpts...)

	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.ToLower(col)] = true
	}

	for _, info := range cls.Columns {
		col := profileColumn(t, info, limit)
		if col.Role == RoleSkipped && col.Recoverable &&
			(recoverSet[strings.ToLower(col.Name)] || recoverSet[col.Key]) {
			col.Role = RoleDimension
			col.SkipReason = ""
		}
		profile.Columns = append(profile.Columns, col)
	}
	return profile
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

func profileColumn(t engine.Table, info engine.ColumnInfo, limit int) ColumnProfile {
	col := ColumnProfile{
		Index:       info.Index,
		Name:        info.Name,
		Key:         toSnakeCase(info.Name),
		DisplayName: engine.LabelForColumn(info.Name),
		Kind:        info.Kind,
	}

	unique := make(map[string]bool)
	values := 0
	for r := 0; r < limit; r++ {
		v := t.Value(r, info.Index)
		if v == nil {
			col.NullCount++
			continue
		}
		values++
		unique[engine.FormatLabel(v)] = true
	}
	col.UniqueCount = len(unique)
	col.SampleValues = collectSamples(unique, 10)
	col.CardinalityHint = cardinalityHint(col.UniqueCount)

	col.classify(info, values)
	return col
}

// classify maps the engine role onto a dashboard role, demoting columns
// that are unique per row or too diverse to group by.
func (col *ColumnProfile) classify(info engine.ColumnInfo, values int) {
	uniquePerRow := col.UniqueCount == values && values > 10

	switch info.Role {
	case engine.RoleTime:
		col.Role = RoleTime

	case engine.RoleNumeric:
		if uniquePerRow && isIDName(col.Name) {
			col.skip("Unique per row: likely an ID column", false)
			return
		}
		col.Role = RoleMeasure

	case engine.RoleCategorical:
		if uniquePerRow {
			col.skip("Unique per row: likely an identifier or free text", !isIDName(col.Name))
			return
		}
		if col.UniqueCount > values/2 && col.UniqueCount > 50 {
			col.skip(fmt.Sprintf("High cardinality (%d unique values): not useful for grouping", col.UniqueCount), true)
			return
		}
		col.Role = RoleDimension

	default:
		if info.Kind == engine.KindNone {
			col.skip("All values are empty/null", false)
		} else {
			col.skip("Values are neither numbers nor text", false)
		}
	}
}

func (col *ColumnProfile) skip(reason string, recoverable bool) {
	col.Role = RoleSkipped
	col.SkipReason = reason
	col.Recoverable = recoverable
}

func cardinalityHint(unique int) string {
	switch {
	case unique <= 10:
		return "low"
	case unique <= 100:
		return "medium"
	default:
		return "high"
	}
}

// isIDName reports whether a header looks like a row identifier.
func isIDName(header string) bool {
	k := toSnakeCase(header)
	return k == "id" || strings.HasSuffix(k, "_id") || strings.HasSuffix(k, "_key")
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// collectSamples picks up to maxSamples values in sorted order.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
