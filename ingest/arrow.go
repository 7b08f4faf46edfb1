package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"

	"github.com/spektr-org/nexus/engine"
)

// ============================================================================
// ARROW — IPC stream → engine.QueryResult
// ============================================================================
// Numeric arrays become float64, strings stay strings, timestamps and dates
// become RFC 3339 text, nulls become nil. Other types fall back to the
// array's own string rendering.
// ============================================================================

// ReadArrow reads every record batch of an Arrow IPC stream.
func ReadArrow(r io.Reader) (*engine.QueryResult, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow stream: %w", err)
	}
	defer rdr.Release()

	fields := rdr.Schema().Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	rows := make([][]engine.Value, 0)
	for rdr.Next() {
		rec := rdr.Record()
		n := int(rec.NumRows())
		batch := make([][]engine.Value, n)
		for i := range batch {
			batch[i] = make([]engine.Value, len(columns))
		}
		for c := 0; c < int(rec.NumCols()) && c < len(columns); c++ {
			col := rec.Column(c)
			for i := 0; i < n; i++ {
				batch[i][c] = arrowValue(col, i)
			}
		}
		rows = append(rows, batch...)
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read arrow stream: %w", err)
	}

	total := len(rows)
	return &engine.QueryResult{Columns: columns, Rows: rows, RowCount: &total}, nil
}

// arrowValue extracts row i of an array as an engine value.
func arrowValue(col arrow.Array, i int) engine.Value {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Int8:
		return float64(a.Value(i))
	case *array.Int16:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Uint8:
		return float64(a.Value(i))
	case *array.Uint16:
		return float64(a.Value(i))
	case *array.Uint32:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC().Format(time.RFC3339)
	case *array.Date32:
		return a.Value(i).ToTime().Format("2006-01-02")
	case *array.Date64:
		return a.Value(i).ToTime().Format("2006-01-02")
	case *array.Decimal128:
		return decimalValue(a.ValueStr(i))
	}
	return col.ValueStr(i)
}

// decimalValue converts exact decimal text to float64, keeping the text when
// it does not parse.
func decimalValue(s string) engine.Value {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}
