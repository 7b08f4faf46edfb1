package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ============================================================================
// VALUE COERCION — Dynamic cell values → numbers and labels
// ============================================================================
// numberOf is the strict test ("typeof value === number").
// coerce is the loose conversion used by sums, sparklines and buckets.
// ============================================================================

// numberOf returns v as a float64 when its dynamic type is numeric.
// Non-finite floats are not usable numbers.
func numberOf(v Value) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// kindOf classifies a single non-nil value.
func kindOf(v Value, numericText bool) ValueKind {
	switch s := v.(type) {
	case nil:
		return KindNone
	case string:
		if numericText {
			if _, ok := parseNumericText(s); ok {
				return KindNumber
			}
		}
		return KindString
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	default:
		return KindOther
	}
}

// parseNumericText parses s as a finite float.
func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerce converts v to a number the way a loose numeric conversion would.
// nil, empty and non-numeric strings are not numbers.
func coerce(v Value) (float64, bool) {
	if f, ok := numberOf(v); ok {
		return f, true
	}
	switch s := v.(type) {
	case string:
		return parseNumericText(s)
	case bool:
		if s {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// coerceOrZero returns the coerced value, or 0 when v is not a number.
func coerceOrZero(v Value) float64 {
	f, _ := coerce(v)
	return f
}

// ============================================================================
// LABELS
// ============================================================================

// FormatLabel stringifies a cell for use as a category label.
// nil renders as "null"; numbers drop trailing zeros.
func FormatLabel(v Value) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339)
	case fmt.Stringer:
		return s.String()
	}
	if f, ok := numberOf(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// cellText stringifies a cell for table output. nil renders empty.
func cellText(v Value) string {
	if v == nil {
		return ""
	}
	return FormatLabel(v)
}

// isTimeLikeName is the name-based time override.
func isTimeLikeName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "time") || strings.Contains(lower, "date")
}

// timeLayouts are tried in order when a time-like value is a string.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
}

// epochMillis converts a time-like cell to Unix milliseconds.
// Numbers are taken as already being epoch values.
func epochMillis(v Value) (float64, bool) {
	switch s := v.(type) {
	case time.Time:
		return float64(s.UnixMilli()), true
	case string:
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return float64(t.UnixMilli()), true
			}
		}
		return 0, false
	}
	return numberOf(v)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatNumber formats a value with comma separators.
// Whole numbers print without decimals, others with two.
func FormatNumber(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	rounded := RoundTo2(value)
	intPart := int64(rounded)
	decPart := int64(math.Round((rounded - float64(intPart)) * 100))
	if decPart == 100 {
		intPart++
		decPart = 0
	}

	result := FormatInt(intPart)
	if decPart != 0 {
		result = fmt.Sprintf("%s.%02d", result, decPart)
	}
	if negative && (intPart != 0 || decPart != 0) {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForColumn returns a display label for a column name.
// "cpu_usage" → "Cpu Usage"; names containing spaces are kept as-is.
func LabelForColumn(name string) string {
	if strings.Contains(name, " ") {
		return strings.TrimSpace(name)
	}
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
