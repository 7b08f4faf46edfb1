package engine

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CLASSIFIER + EXTRACTOR TESTS
// ============================================================================

func qr(cols []string, rows ...[]Value) *QueryResult {
	return &QueryResult{Columns: cols, Rows: rows}
}

func TestClassifyUsesFirstNonNullValue(t *testing.T) {
	res := qr([]string{"host", "cpu", "empty", "flag", "created_date"},
		[]Value{nil, nil, nil, true, "2024-01-01"},
		[]Value{"web-1", 12.5, nil, false, "2024-01-02"},
	)

	cls := Classify(res)
	require.Equal(t, 5, cls.Len())

	assert.Equal(t, KindString, cls.Columns[0].Kind)
	assert.Equal(t, RoleCategorical, cls.Columns[0].Role)
	assert.Equal(t, KindNumber, cls.Columns[1].Kind)
	assert.Equal(t, RoleNumeric, cls.Columns[1].Role)
	assert.Equal(t, KindNone, cls.Columns[2].Kind)
	assert.Equal(t, RoleSkip, cls.Columns[2].Role)
	assert.Equal(t, KindOther, cls.Columns[3].Kind)
	assert.Equal(t, RoleSkip, cls.Columns[3].Role)
	assert.True(t, cls.Columns[4].TimeLike)
	assert.Equal(t, RoleTime, cls.Columns[4].Role)
}

func TestClassifyTimeLikeIsNameBased(t *testing.T) {
	res := qr([]string{"Timestamp", "UpdateDate", "value"},
		[]Value{1700000000000, 1700000000000, 3},
	)
	cls := Classify(res)

	assert.True(t, cls.Columns[0].TimeLike)
	assert.True(t, cls.Columns[1].TimeLike)
	assert.False(t, cls.Columns[2].TimeLike)
	assert.Equal(t, []int{0, 1, 2}, cls.Numeric(false))
	assert.Equal(t, []int{2}, cls.Numeric(true))
}

func TestClassifyNumericText(t *testing.T) {
	res := qr([]string{"name", "value"}, []Value{"a", "42.5"})

	assert.Equal(t, KindString, Classify(res).Columns[1].Kind)
	assert.Equal(t, KindNumber, Classify(res, WithNumericText()).Columns[1].Kind)
	assert.Equal(t, KindString, Classify(res, WithNumericText()).Columns[0].Kind)
}

func TestClassifyAcceptsJSONNumbers(t *testing.T) {
	res := qr([]string{"n"}, []Value{json.Number("12")})
	assert.Equal(t, KindNumber, Classify(res).Columns[0].Kind)
}

func TestClassifyEmptyInput(t *testing.T) {
	assert.Equal(t, 0, Classify(qr([]string{})).Len())
	assert.Equal(t, 0, Classify(nil).Len())

	var nilResult *QueryResult
	assert.Equal(t, 0, Classify(nilResult).Len())
}

func TestSelectAxisPrecedence(t *testing.T) {
	tests := []struct {
		name string
		res  *QueryResult
		key  string
		want int
	}{
		{
			name: "explicit key wins",
			res:  qr([]string{"host", "region", "v"}, []Value{"a", "b", 1}),
			key:  "region",
			want: 1,
		},
		{
			name: "missing explicit key is ignored",
			res:  qr([]string{"host", "region", "v"}, []Value{"a", "b", 1}),
			key:  "nope",
			want: 0,
		},
		{
			name: "categorical non-time before time",
			res:  qr([]string{"time", "host", "v"}, []Value{"00:00", "a", 1}),
			want: 1,
		},
		{
			name: "categorical time column when nothing else",
			res:  qr([]string{"v", "time"}, []Value{1, "00:00"}),
			want: 1,
		},
		{
			name: "numeric time column by name",
			res:  qr([]string{"v", "event_time"}, []Value{1, 1700000000}),
			want: 1,
		},
		{
			name: "skip columns are never the axis",
			res:  qr([]string{"v", "label"}, []Value{1, nil}),
			want: 0,
		},
		{
			name: "falls back to index zero",
			res:  qr([]string{"a", "b"}, []Value{1, 2}),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectAxis(Classify(tt.res), tt.key))
		})
	}

	assert.Equal(t, -1, SelectAxis(Classification{}, ""))
}

func TestSelectSeriesCyclesPalette(t *testing.T) {
	res := qr([]string{"name", "a", "b", "c"}, []Value{"x", 1, 2, 3})
	cls := Classify(res)

	cols, keys := SelectSeries(cls, 0, false, []string{"red", "blue"})
	assert.Equal(t, []int{1, 2, 3}, cols)
	require.Len(t, keys, 3)
	assert.Equal(t, SeriesKey{Key: "a", Name: "a", Color: "red"}, keys[0])
	assert.Equal(t, "blue", keys[1].Color)
	assert.Equal(t, "red", keys[2].Color)
}

func TestSelectSingleValue(t *testing.T) {
	assert.Equal(t, 1, SelectSingleValue(Classify(qr([]string{"time", "cpu"}, []Value{1700000000, 5}))))
	assert.Equal(t, 0, SelectSingleValue(Classify(qr([]string{"time"}, []Value{1700000000}))))
	assert.Equal(t, 1, SelectSingleValue(Classify(qr([]string{"a", "b"}, []Value{"x", "y"}))))
	assert.Equal(t, -1, SelectSingleValue(Classify(qr([]string{}))))
}

func TestLatestValueIsLastRowNotMax(t *testing.T) {
	res := qr([]string{"v"}, []Value{5}, []Value{100}, []Value{3})

	v, ok := LatestValue(res, 0)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = LatestValue(qr([]string{"v"}, []Value{5}, []Value{nil}), 0)
	assert.False(t, ok)
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "null", FormatLabel(nil))
	assert.Equal(t, "3", FormatLabel(3.0))
	assert.Equal(t, "2.5", FormatLabel(2.5))
	assert.Equal(t, "7", FormatLabel(int64(7)))
	assert.Equal(t, "true", FormatLabel(true))
	assert.Equal(t, "abc", FormatLabel("abc"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234", FormatNumber(1234))
	assert.Equal(t, "1,234.50", FormatNumber(1234.5))
	assert.Equal(t, "-12.25", FormatNumber(-12.25))
	assert.Equal(t, "0", FormatNumber(0))
}

func TestLabelForColumn(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"cpu_usage", "Cpu Usage"},
		{"request-count", "Request Count"},
		{"état_courant", "État Courant"},
		{"ünits", "Ünits"},
		{"Already Spaced", "Already Spaced"},
	}
	for _, tt := range tests {
		got := LabelForColumn(tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.True(t, utf8.ValidString(got), tt.name)
	}
}
