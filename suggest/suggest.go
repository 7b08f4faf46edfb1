// Package suggest builds a starter dashboard from a query result.
//
// The layout follows the CSV import flow: a row of stat panels for the
// first measures, a time series and gauge when a time column exists, a bar
// and pie chart when a dimension exists, and a raw data table. Columns come
// from the schema profile and every panel is rendered by engine.Transform.
package suggest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/schema"
)

// Grid layout, in dashboard grid units.
const (
	gridWidth   = 12
	statWidth   = 3
	statHeight  = 3
	chartHeight = 4
	tableHeight = 6

	maxStats = 4
)

// statColors cycle across the stat row.
var statColors = []string{"blue", "green", "orange", "purple"}

// GridPos places a panel on the dashboard grid.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PanelOptions carries the editor settings of a suggested panel.
type PanelOptions struct {
	XAxisKey string   `json:"xAxisKey,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Color    string   `json:"color,omitempty"`
}

// Panel is one suggested panel with its rendered data.
type Panel struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	GridPos GridPos        `json:"gridPos"`
	Options PanelOptions   `json:"options"`
	Result  *engine.Result `json:"result"`
}

// Dashboard is a suggested set of panels plus the column profile that drove it.
type Dashboard struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Panels  []Panel         `json:"panels"`
	Profile *schema.Profile `json:"profile"`
}

// Option configures Suggest.
type Option func(*config)

type config struct {
	title       string
	maxStats    int
	discover    schema.DiscoverOptions
	engineOpts  []engine.Option
	numericText bool
}

// WithTitle sets the dashboard title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithMaxStats limits the stat row. Values outside 1..4 are ignored.
func WithMaxStats(n int) Option {
	return func(c *config) {
		if n > 0 && n <= maxStats {
			c.maxStats = n
		}
	}
}

// WithDiscoverOptions passes options through to the column profiler.
func WithDiscoverOptions(opts schema.DiscoverOptions) Option {
	return func(c *config) { c.discover = opts }
}

// WithEngineOptions adds options to every panel transform, after the
// column selection.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithNumericText treats numeric strings as numbers in both the profile
// and the panels.
func WithNumericText() Option {
	return func(c *config) { c.numericText = true }
}

// columnSet is the column selection a dashboard is built from.
type columnSet struct {
	measures  []string
	time      string
	dimension string
}

func selectColumns(p *schema.Profile) columnSet {
	set := columnSet{measures: p.Measures(), time: p.TimeColumn()}
	if dims := p.Dimensions(); len(dims) > 0 {
		set.dimension = dims[0]
	}
	return set
}

// Suggest lays out a dashboard for the table. Empty input yields a dashboard
// holding only the raw data table.
func Suggest(t engine.Table, opts ...Option) *Dashboard {
	cfg := &config{
		title:    "Imported Data",
		maxStats: maxStats,
		discover: schema.DefaultDiscoverOptions(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if t == nil {
		t = &engine.QueryResult{}
	}
	if cfg.discover.Name == "" {
		cfg.discover.Name = cfg.title
	}
	if cfg.numericText {
		cfg.discover.NumericText = true
		cfg.engineOpts = append(cfg.engineOpts, engine.WithNumericText())
	}

	d := &Dashboard{
		ID:      uuid.NewString(),
		Title:   cfg.title,
		Panels:  []Panel{},
		Profile: schema.Discover(t, cfg.discover),
	}
	cols := selectColumns(d.Profile)
	y := 0

	// 1. Stat row
	for i, m := range cols.measures {
		if i >= cfg.maxStats {
			break
		}
		d.add(t, cfg, Panel{
			Type:    engine.PanelStat,
			Title:   m,
			GridPos: GridPos{X: i * statWidth, Y: y, W: statWidth, H: statHeight},
			Options: PanelOptions{Columns: []string{m}, Color: statColors[i%len(statColors)]},
		})
	}
	if len(cols.measures) > 0 {
		y += statHeight
	}

	// 2. Time series + gauge
	if cols.time != "" && len(cols.measures) > 0 {
		d.add(t, cfg, Panel{
			Type:    engine.PanelTimeSeries,
			Title:   "Time Series Data",
			GridPos: GridPos{X: 0, Y: y, W: 8, H: chartHeight},
			Options: PanelOptions{XAxisKey: cols.time, Columns: cols.measures},
		})
		d.add(t, cfg, Panel{
			Type:    engine.PanelGauge,
			Title:   cols.measures[0] + " Gauge",
			GridPos: GridPos{X: 8, Y: y, W: 4, H: chartHeight},
			Options: PanelOptions{Columns: []string{cols.measures[0]}},
		})
		y += chartHeight
	}

	// 3. Bar + pie over the first measure grouped by the first dimension
	if cols.dimension != "" && len(cols.measures) > 0 {
		dim, m := cols.dimension, cols.measures[0]
		d.add(t, cfg, Panel{
			Type:    engine.PanelBar,
			Title:   fmt.Sprintf("%s by %s", m, dim),
			GridPos: GridPos{X: 0, Y: y, W: gridWidth / 2, H: chartHeight},
			Options: PanelOptions{XAxisKey: dim, Columns: []string{m}},
		})
		d.add(t, cfg, Panel{
			Type:    engine.PanelPie,
			Title:   fmt.Sprintf("%s Distribution", dim),
			GridPos: GridPos{X: gridWidth / 2, Y: y, W: gridWidth / 2, H: chartHeight},
			Options: PanelOptions{XAxisKey: dim, Columns: []string{m}},
		})
		y += chartHeight
	}

	// 4. Raw data
	d.add(t, cfg, Panel{
		Type:    engine.PanelTable,
		Title:   "Raw Data",
		GridPos: GridPos{X: 0, Y: y, W: gridWidth, H: tableHeight},
	})

	return d
}

// add renders p through the engine and appends it. The panel reads its
// x-axis column plus its value columns, so a stat or gauge shows exactly
// the column it is titled after.
func (d *Dashboard) add(t engine.Table, cfg *config, p Panel) {
	var opts []engine.Option
	if len(p.Options.Columns) > 0 {
		cols := p.Options.Columns
		if p.Options.XAxisKey != "" {
			cols = append([]string{p.Options.XAxisKey}, cols...)
		}
		opts = append(opts, engine.WithColumns(cols...))
	}
	if p.Options.XAxisKey != "" {
		opts = append(opts, engine.WithXAxisKey(p.Options.XAxisKey))
	}
	if p.Type == engine.PanelTable {
		opts = append(opts, engine.WithTitle(p.Title))
	}
	opts = append(opts, cfg.engineOpts...)

	res, err := engine.Transform(p.Type, t, opts...)
	if err != nil {
		// panel types above are canonical; keep the panel and surface the error
		res = &engine.Result{Panel: p.Type, Data: []engine.ChartDatum{}, SeriesKeys: []engine.SeriesKey{}, Empty: true, Warnings: []string{err.Error()}}
	}

	p.ID = fmt.Sprintf("%s-%d", p.Type, len(d.Panels)+1)
	p.Result = res
	d.Panels = append(d.Panels, p)
}
