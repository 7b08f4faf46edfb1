package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// SAMPLE DATA — Placeholder results for empty input
// ============================================================================
// Deterministic so repeated renders of an empty panel look the same.
// ============================================================================

var (
	sampleCategories = []string{"Category A", "Category B", "Category C", "Category D", "Category E"}
	sampleServices   = []string{"API Server", "Database", "Cache", "Worker"}
	sampleStatuses   = []string{StatusOK, StatusOK, StatusOK, StatusWarning, StatusOK, StatusError, StatusOK, StatusUnknown}
	sampleStates     = []string{"Running", "Idle", "Processing", "Error", "Stopped"}
)

// SampleResult returns placeholder data shaped for the panel type.
// Unknown panels get the generic time series sample.
func SampleResult(panel string) *QueryResult {
	switch panel {
	case PanelBar, PanelPie, PanelTable:
		return sampleCategoryResult()
	case PanelHistogram:
		return sampleHistogramResult()
	case PanelHeatmap:
		return sampleHeatmapResult()
	case PanelStatusHistory:
		return sampleStatusResult()
	case PanelStateTimeline:
		return sampleTimelineResult()
	default:
		return sampleSeriesResult()
	}
}

func sampleCategoryResult() *QueryResult {
	rows := make([][]Value, 0, len(sampleCategories))
	for i, c := range sampleCategories {
		rows = append(rows, []Value{c, float64(100 - i*15)})
	}
	return newSample([]string{"category", "value"}, rows)
}

func sampleSeriesResult() *QueryResult {
	rows := make([][]Value, 0, 12)
	for i := 0; i < 12; i++ {
		cpu := 50 + 30*math.Sin(float64(i)/2)
		mem := 60 + 20*math.Cos(float64(i)/3)
		rows = append(rows, []Value{
			fmt.Sprintf("%02d:%02d", i*5/60, i*5%60),
			RoundTo2(cpu),
			RoundTo2(mem),
		})
	}
	return newSample([]string{"time", "cpu", "memory"}, rows)
}

func sampleHistogramResult() *QueryResult {
	rows := make([][]Value, 0, 50)
	for i := 0; i < 50; i++ {
		v := 100 + 40*math.Sin(float64(i)*0.7) + float64(i%7)*5
		rows = append(rows, []Value{RoundTo2(v)})
	}
	return newSample([]string{"latency_ms"}, rows)
}

func sampleHeatmapResult() *QueryResult {
	rows := make([][]Value, 0, 24*len(sampleCategories))
	for h := 0; h < 24; h++ {
		for j, c := range sampleCategories {
			v := 50 + 45*math.Sin(float64(h+j*3)/4)
			rows = append(rows, []Value{fmt.Sprintf("%d:00", h), c, RoundTo2(v)})
		}
	}
	return newSample([]string{"time", "category", "value"}, rows)
}

func sampleStatusResult() *QueryResult {
	rows := make([][]Value, 0, 48*len(sampleServices))
	for i := 0; i < 48; i++ {
		slot := fmt.Sprintf("%02d:%02d", i/2, (i%2)*30)
		for j, s := range sampleServices {
			rows = append(rows, []Value{slot, s, sampleStatuses[(i*3+j*5)%len(sampleStatuses)]})
		}
	}
	return newSample([]string{"time", "service", "status"}, rows)
}

func sampleTimelineResult() *QueryResult {
	rows := make([][]Value, 0, 21)
	at := 0.0
	for i := 0; i < 20; i++ {
		rows = append(rows, []Value{at, sampleStates[(i*2+i/3)%len(sampleStates)]})
		at += float64(1000 + (i*1237)%5000)
	}
	rows = append(rows, []Value{at, sampleStates[0]})
	return newSample([]string{"time", "state"}, rows)
}

func newSample(cols []string, rows [][]Value) *QueryResult {
	n := len(rows)
	return &QueryResult{Columns: cols, Rows: rows, RowCount: &n}
}
