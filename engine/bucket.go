package engine

import (
	"fmt"
	"math"
	"strconv"
)

// ============================================================================
// BUCKETIZER — Fixed-width frequency distribution on a shared scale
// ============================================================================

// HistogramBuckets is the bucket count used by the histogram panel.
const HistogramBuckets = 20

// Bucket is one fixed-width interval with a count per series column.
type Bucket struct {
	Range  string  `json:"range"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Counts []int   `json:"counts"` // one per column, in column order
}

// Bucketize distributes the values of cols into count buckets spanning the
// global min and max of all selected columns. Values that are not numbers
// are skipped. Returns nil when no numeric value exists.
func Bucketize(t Table, cols []int, count int) []Bucket {
	if count <= 0 || len(cols) == 0 {
		return nil
	}

	series := make([][]float64, len(cols))
	var all []float64
	for j, col := range cols {
		series[j] = ColumnValues(t, col)
		all = append(all, series[j]...)
	}

	lo, hi, ok := MinMax(all)
	if !ok {
		return nil
	}

	step := bucketStep(lo, hi, count)

	buckets := make([]Bucket, count)
	for i := range buckets {
		start := lo + float64(i)*step
		end := start + step
		buckets[i] = Bucket{
			Range:  fmt.Sprintf("%s - %s", boundLabel(start), boundLabel(end)),
			Min:    start,
			Max:    end,
			Counts: make([]int, len(cols)),
		}
	}

	for j, vals := range series {
		for _, v := range vals {
			buckets[bucketIndex(v, lo, step, count)].Counts[j]++
		}
	}
	return buckets
}

// bucketStep is (max-min)/count, or 1/count for a flat range. A range wider
// than float64 is divided before subtracting.
func bucketStep(lo, hi float64, count int) float64 {
	n := float64(count)
	span := hi - lo
	switch {
	case span == 0:
		return 1 / n
	case math.IsInf(span, 0):
		return hi/n - lo/n
	}
	return span / n
}

// bucketIndex clamps floor((v-min)/step) to [0, count-1] so the max lands
// in the last bucket.
func bucketIndex(v, lo, step float64, count int) int {
	pos := (v - lo) / step
	if math.IsInf(v-lo, 0) {
		pos = v/step - lo/step
	}
	if math.IsNaN(pos) {
		return 0
	}
	if pos >= float64(count) {
		return count - 1
	}
	idx := int(math.Floor(pos))
	if idx < 0 {
		return 0
	}
	return idx
}

// boundLabel floors a bucket bound for its range label. Bounds outside the
// int64 range print in exponent form.
func boundLabel(f float64) string {
	f = math.Floor(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return strconv.FormatFloat(f, 'g', 4, 64)
	}
	return strconv.FormatInt(int64(f), 10)
}
