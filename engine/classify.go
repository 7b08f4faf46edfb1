package engine

// ============================================================================
// COLUMN CLASSIFIER
// ============================================================================
// For each column: scan rows for the first non-null value and classify it by
// dynamic type. Column names containing "time" or "date" are flagged
// time-like regardless of value type. Columns with no non-null value are
// skipped and never selected as axis or series.
// ============================================================================

// Classification is the per-column role table for one result.
type Classification struct {
	Columns []ColumnInfo `json:"columns"`
}

// Classify builds the classification for a table. Empty input yields an
// empty classification.
func Classify(t Table, opts ...Option) Classification {
	cfg := applyOptions(opts)
	return classify(t, cfg)
}

func classify(t Table, cfg *config) Classification {
	if t == nil {
		return Classification{}
	}
	names := t.ColumnNames()
	cols := make([]ColumnInfo, len(names))
	n := t.Len()

	for i, name := range names {
		info := ColumnInfo{
			Index:    i,
			Name:     name,
			Kind:     KindNone,
			TimeLike: isTimeLikeName(name),
		}
		for r := 0; r < n; r++ {
			if v := t.Value(r, i); v != nil {
				info.Kind = kindOf(v, cfg.NumericText)
				break
			}
		}
		info.Role = roleFor(info)
		cols[i] = info
	}
	return Classification{Columns: cols}
}

func roleFor(info ColumnInfo) ColumnRole {
	switch {
	case info.Kind == KindNone || info.Kind == KindOther:
		return RoleSkip
	case info.TimeLike:
		return RoleTime
	case info.Kind == KindNumber:
		return RoleNumeric
	default:
		return RoleCategorical
	}
}

// Len returns the number of classified columns.
func (c Classification) Len() int { return len(c.Columns) }

// Numeric returns the indices of numeric columns in column order.
// excludeTime drops time-like columns even when their values are numbers.
func (c Classification) Numeric(excludeTime bool) []int {
	var out []int
	for _, col := range c.Columns {
		if !col.Numeric() || (excludeTime && col.TimeLike) {
			continue
		}
		out = append(out, col.Index)
	}
	return out
}

// Categorical returns the indices of string-valued columns in column order.
func (c Classification) Categorical(excludeTime bool) []int {
	var out []int
	for _, col := range c.Columns {
		if !col.Categorical() || (excludeTime && col.TimeLike) {
			continue
		}
		out = append(out, col.Index)
	}
	return out
}

// FirstTimeLike returns the first time-like column, or -1.
// Columns without any value are ignored.
func (c Classification) FirstTimeLike() int {
	for _, col := range c.Columns {
		if col.TimeLike && col.Kind != KindNone {
			return col.Index
		}
	}
	return -1
}

// HasTimeLike reports whether any column name is time-like.
func (c Classification) HasTimeLike() bool {
	for _, col := range c.Columns {
		if col.TimeLike {
			return true
		}
	}
	return false
}

// IndexOf returns the index of the named column, or -1.
func (c Classification) IndexOf(name string) int {
	if name == "" {
		return -1
	}
	for _, col := range c.Columns {
		if col.Name == name {
			return col.Index
		}
	}
	return -1
}

// Name returns the column name at index i.
func (c Classification) Name(i int) string {
	if i < 0 || i >= len(c.Columns) {
		return ""
	}
	return c.Columns[i].Name
}
