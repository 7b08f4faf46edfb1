package engine

// ============================================================================
// TABLE VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns or mutates query results. It reads through Table.
//
// Implementations:
//   *QueryResult: rows as returned by a query execution
//   SubTable:     filtered subset (indices into parent, zero-copy)
//   ColumnView:   column projection (indices into parent, zero-copy)
// ============================================================================

// Table provides indexed access to a query result.
// Builders call Value in tight loops; keep implementations fast.
type Table interface {
	ColumnNames() []string
	Len() int
	Value(row, col int) Value
}

// ============================================================================
// QUERY RESULT VIEW
// ============================================================================

// ColumnNames returns the column names. A nil result has none.
func (r *QueryResult) ColumnNames() []string {
	if r == nil {
		return nil
	}
	return r.Columns
}

// Len returns the number of rows. A nil result has no rows.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Value returns the cell at (row, col), or nil when out of range.
func (r *QueryResult) Value(row, col int) Value {
	if r == nil || row < 0 || row >= len(r.Rows) {
		return nil
	}
	cells := r.Rows[row]
	if col < 0 || col >= len(cells) {
		return nil
	}
	return cells[col]
}

// ============================================================================
// SUB TABLE — filtered subset (zero-copy)
// ============================================================================

// SubTable is a filtered subset of a parent Table.
// Holds row indices into the parent. No data copy.
type SubTable struct {
	parent  Table
	indices []int
}

func newSubTable(parent Table, indices []int) Table {
	return &SubTable{parent: parent, indices: indices}
}

func (v *SubTable) ColumnNames() []string { return v.parent.ColumnNames() }
func (v *SubTable) Len() int              { return len(v.indices) }

func (v *SubTable) Value(row, col int) Value {
	if row < 0 || row >= len(v.indices) {
		return nil
	}
	return v.parent.Value(v.indices[row], col)
}

// ============================================================================
// COLUMN VIEW — projected columns (zero-copy)
// ============================================================================

// ColumnView exposes a subset of a parent's columns in a chosen order.
type ColumnView struct {
	parent Table
	cols   []int
	names  []string
}

// SelectColumns projects t onto the named columns in the given order.
// Unknown names and repeats are dropped. No names returns t unchanged.
func SelectColumns(t Table, names ...string) Table {
	if t == nil || len(names) == 0 {
		return t
	}
	index := make(map[string]int)
	for i, name := range t.ColumnNames() {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	v := &ColumnView{parent: t}
	picked := make(map[string]bool, len(names))
	for _, name := range names {
		i, ok := index[name]
		if !ok || picked[name] {
			continue
		}
		picked[name] = true
		v.cols = append(v.cols, i)
		v.names = append(v.names, name)
	}
	return v
}

func (v *ColumnView) ColumnNames() []string { return v.names }
func (v *ColumnView) Len() int              { return v.parent.Len() }

func (v *ColumnView) Value(row, col int) Value {
	if col < 0 || col >= len(v.cols) {
		return nil
	}
	return v.parent.Value(row, v.cols[col])
}

// ============================================================================
// MATERIALIZE
// ============================================================================

// Materialize copies any Table into a QueryResult.
// Used at output boundaries (CLI, HTTP) where a concrete shape is needed.
func Materialize(t Table) *QueryResult {
	if t == nil {
		return &QueryResult{Columns: []string{}, Rows: [][]Value{}}
	}
	if qr, ok := t.(*QueryResult); ok && qr != nil {
		return qr
	}
	cols := t.ColumnNames()
	rows := make([][]Value, t.Len())
	for i := range rows {
		row := make([]Value, len(cols))
		for j := range cols {
			row[j] = t.Value(i, j)
		}
		rows[i] = row
	}
	n := len(rows)
	return &QueryResult{Columns: cols, Rows: rows, RowCount: &n}
}

// isEmptyTable reports a nil table, zero columns or zero rows.
func isEmptyTable(t Table) bool {
	if t == nil {
		return true
	}
	if qr, ok := t.(*QueryResult); ok && qr == nil {
		return true
	}
	return len(t.ColumnNames()) == 0 || t.Len() == 0
}
