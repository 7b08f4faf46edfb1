package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/spektr-org/nexus/engine"
)

// ============================================================================
// JSON — Query results and query-service envelopes
// ============================================================================
// Accepted shapes:
//   {"columns": [...], "rows": [[...]], "rowCount": n}
//   {"success": true,  "data": {"columns": [...], "rows": [[...]]}}
//   {"success": false, "error": "..."}
// ============================================================================

// ErrQueryFailed wraps the error text of a {success:false} envelope.
var ErrQueryFailed = errors.New("query failed")

// ErrNoColumns is returned when a payload carries no column list.
var ErrNoColumns = errors.New("result has no columns")

type payload struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount *int     `json:"rowCount,omitempty"`

	Success *bool    `json:"success"`
	Data    *payload `json:"data"`
	Error   string   `json:"error"`
}

// DecodeJSON decodes a query result or a query-service envelope.
// Numbers decode to float64.
func DecodeJSON(data []byte) (*engine.QueryResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}

	if p.Success != nil {
		if !*p.Success {
			msg := p.Error
			if msg == "" {
				msg = "no error message"
			}
			return nil, fmt.Errorf("%w: %s", ErrQueryFailed, msg)
		}
		if p.Data == nil {
			return nil, ErrNoColumns
		}
		p = *p.Data
	}

	if p.Columns == nil {
		return nil, ErrNoColumns
	}

	rows := make([][]engine.Value, len(p.Rows))
	for i, r := range p.Rows {
		row := make([]engine.Value, len(r))
		for j, v := range r {
			row[j] = normalizeJSON(v)
		}
		rows[i] = row
	}

	return &engine.QueryResult{Columns: p.Columns, Rows: rows, RowCount: p.RowCount}, nil
}

// normalizeJSON turns json.Number into float64. Numbers that do not fit a
// float64 are kept as their literal text.
func normalizeJSON(v any) engine.Value {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
