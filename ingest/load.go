package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/nexus/engine"
)

// Supported input formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatArrow = "arrow"
)

// ErrUnknownFormat is returned for inputs with no matching decoder.
var ErrUnknownFormat = errors.New("unknown input format")

// FormatFromPath infers the input format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".arrow", ".arrows", ".ipc":
		return FormatArrow, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Decode reads a query result in the given format.
func Decode(format string, r io.Reader) (*engine.QueryResult, error) {
	format = strings.ToLower(format)
	switch format {
	case FormatArrow:
		return ReadArrow(r)
	case FormatCSV, FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if format == FormatCSV {
			return ParseCSV(data)
		}
		return DecodeJSON(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Load reads a query result from a file, choosing the decoder by extension.
func Load(path string) (*engine.QueryResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(format, bytes.NewReader(data))
}
