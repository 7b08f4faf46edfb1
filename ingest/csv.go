package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spektr-org/nexus/engine"
)

// ============================================================================
// CSV — Parses CSV bytes into an engine.QueryResult
// ============================================================================
// The header row becomes the column list. Cells that parse as finite floats
// become float64, empty cells become null, everything else stays a string.
// ============================================================================

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses CSV bytes into a QueryResult.
// Rows are padded or truncated to the header width; malformed rows are skipped.
func ParseCSV(data []byte) (*engine.QueryResult, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	columns := make([]string, 0, len(headers))
	for _, h := range headers {
		columns = append(columns, strings.TrimSpace(h))
	}
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "") {
		return nil, ErrNoHeader
	}

	rows := make([][]engine.Value, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if isBlankRecord(record) {
			continue
		}

		row := make([]engine.Value, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = parseCell(record[i])
			}
		}
		rows = append(rows, row)
	}

	n := len(rows)
	return &engine.QueryResult{Columns: columns, Rows: rows, RowCount: &n}, nil
}

// parseCell converts one CSV cell to a typed value.
func parseCell(raw string) engine.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
