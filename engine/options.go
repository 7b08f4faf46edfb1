package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Transform() and the builders
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	XAxisKey       string  // explicit axis column (panel xAxisKey)
	GaugeMin       float64 // gauge range lower bound
	GaugeMax       float64 // gauge range upper bound
	Unit           string  // display unit for single-value panels
	Thresholds     []float64
	NumericText    bool     // strings that parse as finite floats classify as numbers
	Filters        Filters  // row filter applied before any builder
	SampleFallback bool     // substitute sample data for empty input
	TopN           int      // pie category limit before "Other"
	Palette        []string // overrides the panel's default palette
	Title          string
	Columns        []string // projection applied after row filters
}

// WithXAxisKey selects the axis column explicitly when it exists.
func WithXAxisKey(key string) Option {
	return func(c *config) {
		c.XAxisKey = key
	}
}

// WithGaugeRange sets the gauge min and max. Ignored when max <= min.
func WithGaugeRange(min, max float64) Option {
	return func(c *config) {
		if max > min {
			c.GaugeMin = min
			c.GaugeMax = max
		}
	}
}

// WithUnit sets the display unit for stat and gauge panels.
func WithUnit(unit string) Option {
	return func(c *config) {
		c.Unit = unit
	}
}

// WithThresholds overrides the gauge threshold markers.
func WithThresholds(thresholds ...float64) Option {
	return func(c *config) {
		c.Thresholds = append([]float64(nil), thresholds...)
	}
}

// WithNumericText treats numeric strings ("42.5") as numbers during
// classification. Applies to every panel uniformly.
func WithNumericText() Option {
	return func(c *config) {
		c.NumericText = true
	}
}

// WithFilters restricts the rows every builder reads.
func WithFilters(f Filters) Option {
	return func(c *config) {
		c.Filters = f
	}
}

// WithSampleFallback makes Transform render sample data for empty input.
func WithSampleFallback() Option {
	return func(c *config) {
		c.SampleFallback = true
	}
}

// WithTopN sets how many pie categories are kept before "Other". n <= 0 is ignored.
func WithTopN(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithPalette overrides the series colors.
func WithPalette(colors ...string) Option {
	return func(c *config) {
		c.Palette = append([]string(nil), colors...)
	}
}

// WithTitle sets a title on table output.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithColumns restricts every builder to the named columns, in that order,
// as if the result held only them. Unknown names are ignored.
func WithColumns(names ...string) Option {
	return func(c *config) {
		c.Columns = append([]string(nil), names...)
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		GaugeMin:   0,
		GaugeMax:   100,
		Unit:       "",
		Thresholds: []float64{70, 85, 100},
		TopN:       5,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// palette returns the override palette, or def when none is set.
func (c *config) palette(def []string) []string {
	if len(c.Palette) > 0 {
		return c.Palette
	}
	return def
}
