package engine

// ============================================================================
// NEXUS ENGINE TYPES — Query Result Interpretation
// ============================================================================
// A QueryResult is a generic table {columns, rows}. The engine classifies its
// columns, extracts axis/series, aggregates or buckets them, and reshapes the
// result into the data each panel type renders.
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Value is a single cell. Accepted dynamic types are nil, Go numeric kinds,
// json.Number, string and bool. Anything else classifies as "other".
type Value = any

// ============================================================================
// QUERY RESULT — Input table
// ============================================================================

// QueryResult is the tabular output of a query execution.
// Rows shorter than Columns are read as trailing nulls.
type QueryResult struct {
	Columns  []string  `json:"columns"`
	Rows     [][]Value `json:"rows"`
	RowCount *int      `json:"rowCount,omitempty"` // advisory only

	// Truncated is set when the source stopped reading at its row limit.
	Truncated bool `json:"truncated,omitempty"`
}

// ============================================================================
// CLASSIFICATION
// ============================================================================

// ValueKind is the dynamic type of a column's first non-null value.
type ValueKind int

const (
	KindNone ValueKind = iota // no non-null value anywhere
	KindNumber
	KindString
	KindOther
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindOther:
		return "other"
	default:
		return "none"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k ValueKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ColumnRole is the downstream role of a column.
type ColumnRole int

const (
	RoleSkip ColumnRole = iota
	RoleTime
	RoleNumeric
	RoleCategorical
)

func (r ColumnRole) String() string {
	switch r {
	case RoleTime:
		return "time"
	case RoleNumeric:
		return "numeric"
	case RoleCategorical:
		return "categorical"
	default:
		return "skip"
	}
}

func (r ColumnRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ColumnInfo is the classification of one column.
// TimeLike is a name-based flag independent of Kind.
type ColumnInfo struct {
	Index    int        `json:"index"`
	Name     string     `json:"name"`
	Kind     ValueKind  `json:"kind"`
	TimeLike bool       `json:"timeLike"`
	Role     ColumnRole `json:"role"`
}

// Numeric reports whether the column's first non-null value is a number.
func (c ColumnInfo) Numeric() bool { return c.Kind == KindNumber }

// Categorical reports whether the column's first non-null value is a string.
func (c ColumnInfo) Categorical() bool { return c.Kind == KindString }

// ============================================================================
// CHART OUTPUT
// ============================================================================

// ChartDatum is one render-ready record. Category charts carry "name",
// XY charts carry "x", histogram buckets carry "range".
type ChartDatum map[string]any

// SeriesKey describes one plotted series.
type SeriesKey struct {
	Key   string `json:"key"`
	Color string `json:"color"`
	Name  string `json:"name"`
}

// Result is the engine's render-ready output for a single panel.
type Result struct {
	Panel      string       `json:"panel"`
	Data       []ChartDatum `json:"data"`
	SeriesKeys []SeriesKey  `json:"seriesKeys"`
	XKey       string       `json:"xKey,omitempty"`   // datum key of the x value
	XLabel     string       `json:"xLabel,omitempty"` // source of x: a column name or "index"

	// Single-value panels (stat, gauge)
	Value        *float64  `json:"value,omitempty"`
	DisplayValue string    `json:"displayValue,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	Column       string    `json:"column,omitempty"`
	Sparkline    []float64 `json:"sparkline,omitempty"`
	Trend        string    `json:"trend,omitempty"` // "up", "down", "neutral"
	TrendValue   string    `json:"trendValue,omitempty"`

	// Gauge
	Percent    *float64  `json:"percent,omitempty"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Color      string    `json:"color,omitempty"`
	Thresholds []float64 `json:"thresholds,omitempty"`

	// Table
	Table *TableData `json:"table,omitempty"`

	Empty    bool     `json:"empty"`
	Sample   bool     `json:"sample,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title,omitempty"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "time"
	Align string `json:"align"` // "left", "right"
}

// Summary provides per-column totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// FILTERS
// ============================================================================

// Filters restrict which rows are read.
// Keys are column names, values are allowed stringified cell values.
// OR within a column, AND across columns. Empty = all rows.
type Filters struct {
	Columns map[string][]string `json:"columns"`
}

// HasFilter returns true if a filter is set for the column.
func (f Filters) HasFilter(column string) bool {
	if f.Columns == nil {
		return false
	}
	vals, ok := f.Columns[column]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Columns {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// newEmptyResult returns the empty-but-valid render output for a panel.
func newEmptyResult(panel string) *Result {
	return &Result{
		Panel:      panel,
		Data:       []ChartDatum{},
		SeriesKeys: []SeriesKey{},
		Empty:      true,
	}
}
