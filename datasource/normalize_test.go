package datasource

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeDecimal struct{ v float64 }

func (d *fakeDecimal) Float64() float64 { return d.v }

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name   string
		in     any
		dbType string
		want   any
	}{
		{"nil", nil, "INTEGER", nil},
		{"bool", true, "BOOLEAN", true},
		{"int32", int32(7), "INTEGER", 7.0},
		{"int64", int64(-3), "BIGINT", -3.0},
		{"uint8", uint8(200), "UTINYINT", 200.0},
		{"float32", float32(1.5), "FLOAT", 1.5},
		{"nan", math.NaN(), "DOUBLE", nil},
		{"inf", math.Inf(1), "DOUBLE", nil},
		{"big int", big.NewInt(12345), "HUGEINT", 12345.0},
		{"time utc", ts, "TIMESTAMPTZ", "2024-03-01T11:30:00Z"},
		{"text", "hello", "VARCHAR", "hello"},
		{"bytes text", []byte("abc"), "TEXT", "abc"},
		{"numeric text", []byte("12.50"), "NUMERIC", 12.5},
		{"decimal string", " 3.25 ", "DECIMAL(10,2)", 3.25},
		{"bad numeric stays text", "n/a", "NUMERIC", "n/a"},
		{"pointer floater", fakeDecimal{v: 9.75}, "DECIMAL", 9.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in, tt.dbType))
		})
	}
}

func TestNormalizeValueFallsBackToText(t *testing.T) {
	assert.Equal(t, "[1 2]", normalizeValue([]int{1, 2}, "INTEGER[]"))
	assert.Equal(t, "1s", normalizeValue(time.Second, "INTERVAL"))
}

func TestIsExactNumeric(t *testing.T) {
	assert.True(t, isExactNumeric("numeric"))
	assert.True(t, isExactNumeric("DECIMAL(18,3)"))
	assert.False(t, isExactNumeric("DOUBLE"))
	assert.False(t, isExactNumeric(""))
}
