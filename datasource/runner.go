package datasource

import (
	"context"

	"github.com/spektr-org/nexus/engine"
)

// Query is one entry of a multi-query request.
type Query struct {
	RefID      string `json:"refId" validate:"required"`
	Datasource string `json:"datasource" validate:"required"`
	RawSQL     string `json:"rawSql" validate:"required"`
	Format     string `json:"format,omitempty" validate:"omitempty,oneof=table time_series"`
}

// Field describes one frame column.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "number", "string", "time", "boolean", "other"
}

// Frame is the result of one Query. A failed query carries Error and no data.
type Frame struct {
	RefID   string           `json:"refId"`
	Columns []string         `json:"columns"`
	Rows    [][]engine.Value `json:"rows"`
	Fields  []Field          `json:"fields"`
	Length  int              `json:"length"`
	Error   string           `json:"error,omitempty"`

	// Truncated reports that the datasource row limit cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// Result returns the frame as an engine query result.
func (f Frame) Result() *engine.QueryResult {
	n := f.Length
	return &engine.QueryResult{Columns: f.Columns, Rows: f.Rows, RowCount: &n, Truncated: f.Truncated}
}

// Runner executes queries against a registry.
type Runner struct {
	registry *Registry
}

// NewRunner returns a runner over reg.
func NewRunner(reg *Registry) *Runner {
	return &Runner{registry: reg}
}

// Run executes each query in order. A failure is reported in that query's
// frame and does not stop the rest.
func (r *Runner) Run(ctx context.Context, queries []Query) []Frame {
	frames := make([]Frame, 0, len(queries))
	for _, q := range queries {
		frames = append(frames, r.runOne(ctx, q))
	}
	return frames
}

func (r *Runner) runOne(ctx context.Context, q Query) Frame {
	if err := ctx.Err(); err != nil {
		return errorFrame(q.RefID, err)
	}
	res, err := r.registry.Query(ctx, q.Datasource, q.RawSQL)
	if err != nil {
		return errorFrame(q.RefID, err)
	}
	return Frame{
		RefID:     q.RefID,
		Columns:   res.Columns,
		Rows:      res.Rows,
		Fields:    fieldsOf(res),
		Length:    res.Len(),
		Truncated: res.Truncated,
	}
}

func errorFrame(refID string, err error) Frame {
	return Frame{
		RefID:   refID,
		Columns: []string{},
		Rows:    [][]engine.Value{},
		Fields:  []Field{},
		Error:   err.Error(),
	}
}

// fieldsOf types each column from its first non-null value.
func fieldsOf(res *engine.QueryResult) []Field {
	cls := engine.Classify(res)
	fields := make([]Field, len(cls.Columns))
	for i, c := range cls.Columns {
		f := Field{Name: c.Name, Type: "other"}
		switch {
		case c.TimeLike:
			f.Type = "time"
		case c.Kind == engine.KindNumber:
			f.Type = "number"
		case c.Kind == engine.KindString:
			f.Type = "string"
		case c.Kind == engine.KindOther && isBoolColumn(res, i):
			f.Type = "boolean"
		}
		fields[i] = f
	}
	return fields
}

func isBoolColumn(res *engine.QueryResult, col int) bool {
	for r := 0; r < res.Len(); r++ {
		if v := res.Value(r, col); v != nil {
			_, ok := v.(bool)
			return ok
		}
	}
	return false
}
