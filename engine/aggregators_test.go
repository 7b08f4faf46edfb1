package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// AGGREGATOR + BUCKETIZER TESTS
// ============================================================================

func TestGroupSumFirstSeenOrder(t *testing.T) {
	res := qr([]string{"region", "sales"},
		[]Value{"west", 10},
		[]Value{"east", 1},
		[]Value{"west", 5},
		[]Value{"east", "n/a"},
		[]Value{nil, 2},
	)

	groups := GroupSum(res, 0, []int{1})
	require.Len(t, groups, 3)
	assert.Equal(t, "west", groups[0].Label)
	assert.Equal(t, []float64{15}, groups[0].Values)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "east", groups[1].Label)
	assert.Equal(t, []float64{1}, groups[1].Values)
	assert.Equal(t, "null", groups[2].Label)
}

func TestLatestOrSum(t *testing.T) {
	t.Run("sums without a time column", func(t *testing.T) {
		res := qr([]string{"label", "cpu", "mem"},
			[]Value{"a", 10, 20},
			[]Value{"b", 30, 5},
		)
		got := LatestOrSum(res, Classify(res), []int{1, 2})
		assert.Equal(t, []float64{40, 25}, got)
	})

	t.Run("latest row with a time column", func(t *testing.T) {
		res := qr([]string{"time", "cpu", "mem"},
			[]Value{"00:00", 10, 50},
			[]Value{"00:05", 20, 60},
		)
		got := LatestOrSum(res, Classify(res), []int{1, 2})
		assert.Equal(t, []float64{20, 60}, got)
	})
}

func TestTopNWithOther(t *testing.T) {
	points := []Point{
		{"c", 30}, {"h", 80}, {"a", 10}, {"f", 60},
		{"b", 20}, {"g", 70}, {"e", 50}, {"d", 40},
	}

	got := TopNWithOther(points, 5)
	require.Len(t, got, 6)
	assert.Equal(t, []string{"h", "g", "f", "e", "d", OtherLabel},
		[]string{got[0].Name, got[1].Name, got[2].Name, got[3].Name, got[4].Name, got[5].Name})
	assert.Equal(t, 60.0, got[5].Value)

	// input is not reordered in place
	assert.Equal(t, "c", points[0].Name)
}

func TestTopNWithOtherStableTies(t *testing.T) {
	points := []Point{{"first", 5}, {"x", 9}, {"second", 5}, {"third", 5}, {"y", 8}, {"fourth", 5}, {"fifth", 5}}

	got := TopNWithOther(points, 5)
	require.Len(t, got, 6)
	assert.Equal(t, "x", got[0].Name)
	assert.Equal(t, "y", got[1].Name)
	assert.Equal(t, "first", got[2].Name)
	assert.Equal(t, "second", got[3].Name)
	assert.Equal(t, "third", got[4].Name)
	assert.Equal(t, Point{Name: OtherLabel, Value: 10}, got[5])
}

func TestTopNWithOtherFewGroups(t *testing.T) {
	got := TopNWithOther([]Point{{"a", 1}, {"b", 2}}, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
}

func TestBucketizeSharedScale(t *testing.T) {
	res := qr([]string{"a", "b"},
		[]Value{0, 50},
		[]Value{100, 100},
		[]Value{nil, "bad"},
		[]Value{25, 75},
	)

	buckets := Bucketize(res, []int{0, 1}, HistogramBuckets)
	require.Len(t, buckets, HistogramBuckets)
	assert.Equal(t, "0 - 5", buckets[0].Range)
	assert.Equal(t, "95 - 100", buckets[19].Range)

	// max lands in the last bucket, not a 21st
	assert.Equal(t, []int{1, 1}, buckets[19].Counts)
	assert.Equal(t, []int{1, 0}, buckets[0].Counts)
	assert.Equal(t, []int{1, 0}, buckets[5].Counts)
	assert.Equal(t, []int{0, 1}, buckets[10].Counts)
	assert.Equal(t, []int{0, 1}, buckets[15].Counts)
}

func TestBucketizeTotalCountInvariant(t *testing.T) {
	rows := make([][]Value, 0, 200)
	valid := []int{0, 0}
	for i := 0; i < 200; i++ {
		a := Value(float64((i * 37) % 113))
		b := Value(float64(i) / 3)
		if i%9 == 0 {
			a = nil
		} else {
			valid[0]++
		}
		if i%13 == 0 {
			b = "not a number"
		} else {
			valid[1]++
		}
		rows = append(rows, []Value{a, b})
	}
	res := &QueryResult{Columns: []string{"a", "b"}, Rows: rows}

	buckets := Bucketize(res, []int{0, 1}, HistogramBuckets)
	for j := range valid {
		total := 0
		for _, b := range buckets {
			total += b.Counts[j]
		}
		assert.Equal(t, valid[j], total, fmt.Sprintf("series %d", j))
	}
}

func TestBucketizeIdempotent(t *testing.T) {
	res := qr([]string{"v"}, []Value{3}, []Value{9}, []Value{27}, []Value{81})
	assert.Equal(t, Bucketize(res, []int{0}, HistogramBuckets), Bucketize(res, []int{0}, HistogramBuckets))
}

func TestBucketizeRangeWiderThanFloat64(t *testing.T) {
	res := qr([]string{"v"}, []Value{-1e308}, []Value{0.0}, []Value{1e308})

	buckets := Bucketize(res, []int{0}, HistogramBuckets)
	require.Len(t, buckets, HistogramBuckets)
	for _, b := range buckets {
		assert.False(t, math.IsNaN(b.Min) || math.IsInf(b.Min, 0), b.Range)
		assert.False(t, math.IsNaN(b.Max) || math.IsInf(b.Max, 0), b.Range)
	}
	assert.Equal(t, "-1e+308 - -9e+307", buckets[0].Range)
	assert.Equal(t, []int{1}, buckets[0].Counts)
	assert.Equal(t, []int{1}, buckets[10].Counts)
	assert.Equal(t, []int{1}, buckets[19].Counts)
}

func TestMeanColumnLargeValues(t *testing.T) {
	res := qr([]string{"v"}, []Value{1e308}, []Value{1e308})
	mean, ok := MeanColumn(res, 0)
	require.True(t, ok)
	assert.InDelta(t, 1e308, mean, 1e294)
}

func TestBucketizeFlatAndEmpty(t *testing.T) {
	flat := qr([]string{"v"}, []Value{5}, []Value{5})
	buckets := Bucketize(flat, []int{0}, HistogramBuckets)
	require.Len(t, buckets, HistogramBuckets)
	assert.Equal(t, []int{2}, buckets[0].Counts)

	none := qr([]string{"v"}, []Value{nil}, []Value{"x"})
	assert.Empty(t, Bucketize(none, []int{0}, HistogramBuckets))
}
