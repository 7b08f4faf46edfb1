package server

import (
	"github.com/spektr-org/nexus/engine"
)

// TransformOptions is the JSON form of the engine options.
type TransformOptions struct {
	XAxisKey       string              `json:"xAxisKey,omitempty"`
	GaugeMin       *float64            `json:"gaugeMin,omitempty"`
	GaugeMax       *float64            `json:"gaugeMax,omitempty"`
	Unit           string              `json:"unit,omitempty"`
	Thresholds     []float64           `json:"thresholds,omitempty"`
	NumericText    bool                `json:"numericText,omitempty"`
	Filters        map[string][]string `json:"filters,omitempty"`
	SampleFallback bool                `json:"sampleFallback,omitempty"`
	TopN           int                 `json:"topN,omitempty" validate:"gte=0,lte=100"`
	Palette        []string            `json:"palette,omitempty" validate:"omitempty,dive,required"`
	Title          string              `json:"title,omitempty" validate:"max=200"`
}

// EngineOptions converts o to engine options.
func (o TransformOptions) EngineOptions() []engine.Option {
	var opts []engine.Option
	if o.XAxisKey != "" {
		opts = append(opts, engine.WithXAxisKey(o.XAxisKey))
	}
	if o.GaugeMin != nil || o.GaugeMax != nil {
		min, max := 0.0, 100.0
		if o.GaugeMin != nil {
			min = *o.GaugeMin
		}
		if o.GaugeMax != nil {
			max = *o.GaugeMax
		}
		opts = append(opts, engine.WithGaugeRange(min, max))
	}
	if o.Unit != "" {
		opts = append(opts, engine.WithUnit(o.Unit))
	}
	if len(o.Thresholds) > 0 {
		opts = append(opts, engine.WithThresholds(o.Thresholds...))
	}
	if o.NumericText {
		opts = append(opts, engine.WithNumericText())
	}
	if len(o.Filters) > 0 {
		opts = append(opts, engine.WithFilters(engine.Filters{Columns: o.Filters}))
	}
	if o.SampleFallback {
		opts = append(opts, engine.WithSampleFallback())
	}
	if o.TopN > 0 {
		opts = append(opts, engine.WithTopN(o.TopN))
	}
	if len(o.Palette) > 0 {
		opts = append(opts, engine.WithPalette(o.Palette...))
	}
	if o.Title != "" {
		opts = append(opts, engine.WithTitle(o.Title))
	}
	return opts
}
