package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/spektr-org/nexus/config"
	"github.com/spektr-org/nexus/datasource"
	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/ingest"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/schema"
	"github.com/spektr-org/nexus/suggest"
)

// ============================================================================
// NEXUS CLI — query results in, panel data out
// ============================================================================

const version = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterFlag collects repeated --filter column=value pairs.
type filterFlag map[string][]string

func (f filterFlag) String() string {
	parts := make([]string, 0, len(f))
	for col, vals := range f {
		parts = append(parts, col+"="+strings.Join(vals, "|"))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (f filterFlag) Set(s string) error {
	col, val, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return fmt.Errorf("filter must be column=value, got %q", s)
	}
	col = strings.TrimSpace(col)
	f[col] = append(f[col], val)
	return nil
}

type options struct {
	file        string
	configPath  string
	dsID        string
	sql         string
	panel       string
	xAxis       string
	gaugeMin    float64
	gaugeMax    float64
	unit        string
	topN        int
	numericText bool
	filters     filterFlag
	sample      bool
	suggest     bool
	discover    bool
	listPanels  bool
	format      string
	out         string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{filters: filterFlag{}}
	fs := flag.NewFlagSet("nexus", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.file, "file", "", "Path to a query result file (.csv, .json, .arrow)")
	fs.StringVar(&o.configPath, "config", "", "Config file with datasources (for --datasource)")
	fs.StringVar(&o.dsID, "datasource", "", "Datasource ID to run --sql against")
	fs.StringVar(&o.sql, "sql", "", "SQL to run on --datasource")
	fs.StringVar(&o.panel, "panel", "", "Panel type to shape the result for (see --list-panels)")
	fs.StringVar(&o.xAxis, "x-axis", "", "Axis column name")
	fs.Float64Var(&o.gaugeMin, "gauge-min", 0, "Gauge minimum")
	fs.Float64Var(&o.gaugeMax, "gauge-max", 100, "Gauge maximum")
	fs.StringVar(&o.unit, "unit", "", "Display unit for stat and gauge panels")
	fs.IntVar(&o.topN, "top-n", 0, "Pie categories kept before \"Other\" (0 = default)")
	fs.BoolVar(&o.numericText, "numeric-text", false, "Treat numeric strings as numbers")
	fs.Var(o.filters, "filter", "Row filter column=value (repeatable)")
	fs.BoolVar(&o.sample, "sample", false, "Use sample data when the input is empty")
	fs.BoolVar(&o.suggest, "suggest", false, "Print a suggested dashboard instead of one panel")
	fs.BoolVar(&o.discover, "discover", false, "Print the column profile and exit")
	fs.BoolVar(&o.listPanels, "list-panels", false, "List supported panel types and exit")
	fs.StringVar(&o.format, "format", "json", "Output format: json, pretty, csv")
	fs.StringVar(&o.out, "out", "", "Write output to file instead of stdout")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `nexus: shape query results for dashboard panels

Usage:
  nexus --file result.csv --panel barchart
  nexus --file result.json --panel stat --unit ms --format pretty
  nexus --file result.csv --suggest --format pretty
  nexus --config nexus.yaml --datasource warehouse --sql "SELECT ..." --panel timeseries

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  csv       Panel data as CSV (ready for Sheets/Excel)
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch o.format {
	case "json", "pretty", "csv":
	default:
		return nil, fmt.Errorf("unknown format %q", o.format)
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logging.Init(logging.Config{Level: o.logLevel, Format: "console", Output: stderr})

	if o.showVersion {
		fmt.Fprintf(stdout, "nexus %s\n", version)
		return 0
	}
	if o.listPanels {
		fmt.Fprintln(stdout, strings.Join(engine.SupportedPanels(), "\n"))
		return 0
	}

	if err := execute(o, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(o *options, stdout io.Writer) error {
	if o.file == "" && o.dsID == "" && !o.sample {
		return errors.New("--file, --datasource or --sample is required")
	}
	if !o.suggest && !o.discover && o.panel == "" {
		return errors.New("one of --panel, --suggest or --discover is required")
	}

	// ── Output writer ─────────────────────────────────────────────────────
	w := stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	// ── Input ─────────────────────────────────────────────────────────────
	input, err := loadInput(o)
	if err != nil {
		return err
	}
	logging.Info().Int("rows", input.Len()).Int("columns", len(input.Columns)).Msg("loaded input")

	// ── Discover / suggest modes ──────────────────────────────────────────
	if o.discover {
		opts := schema.DefaultDiscoverOptions()
		opts.NumericText = o.numericText
		return writeJSON(w, schema.Discover(input, opts), o.format)
	}
	if o.suggest {
		var opts []suggest.Option
		if o.numericText {
			opts = append(opts, suggest.WithNumericText())
		}
		dash := suggest.Suggest(input, opts...)
		logging.Info().Int("panels", len(dash.Panels)).Msg("suggested dashboard")
		return writeJSON(w, dash, o.format)
	}

	// ── Panel mode ────────────────────────────────────────────────────────
	start := time.Now()
	res, err := engine.Transform(o.panel, input, o.engineOptions()...)
	if err != nil {
		return err
	}
	logging.Debug().
		Str("panel", res.Panel).
		Int("rows", input.Len()).
		Bool("sample", res.Sample).
		Dur("duration", time.Since(start)).
		Msg("transformed result")
	for _, warning := range res.Warnings {
		logging.Warn().Str("panel", res.Panel).Msg(warning)
	}

	if o.format == "csv" {
		return writeCSV(w, res)
	}
	return writeJSON(w, res, o.format)
}

func loadInput(o *options) (*engine.QueryResult, error) {
	switch {
	case o.file != "":
		return ingest.Load(o.file)
	case o.dsID != "":
		return queryDatasource(o)
	}
	return &engine.QueryResult{Columns: []string{}, Rows: [][]engine.Value{}}, nil
}

// queryDatasource opens only the requested datasource from the config.
func queryDatasource(o *options) (*engine.QueryResult, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	reg := datasource.NewRegistry(cfg.Query.Settings())
	defer reg.Close()

	ctx := context.Background()
	for _, ds := range cfg.Datasources {
		if ds.ID == o.dsID {
			if err := reg.Add(ctx, ds); err != nil {
				return nil, err
			}
			return reg.Query(ctx, o.dsID, o.sql)
		}
	}
	return nil, fmt.Errorf("%w: %q", datasource.ErrUnknownDatasource, o.dsID)
}

func (o *options) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithGaugeRange(o.gaugeMin, o.gaugeMax)}
	if o.xAxis != "" {
		opts = append(opts, engine.WithXAxisKey(o.xAxis))
	}
	if o.unit != "" {
		opts = append(opts, engine.WithUnit(o.unit))
	}
	if o.topN > 0 {
		opts = append(opts, engine.WithTopN(o.topN))
	}
	if o.numericText {
		opts = append(opts, engine.WithNumericText())
	}
	if len(o.filters) > 0 {
		opts = append(opts, engine.WithFilters(engine.Filters{Columns: o.filters}))
	}
	if o.sample {
		opts = append(opts, engine.WithSampleFallback())
	}
	return opts
}

// ============================================================================
// CSV OUTPUT — panel data as a header row of keys plus one row per datum
// ============================================================================

func writeCSV(w io.Writer, res *engine.Result) error {
	cw := csv.NewWriter(w)

	switch {
	case res.Table != nil && len(res.Table.Columns) > 0:
		header := make([]string, len(res.Table.Columns))
		for i, c := range res.Table.Columns {
			header[i] = c.Label
		}
		_ = cw.Write(header)
		for _, row := range res.Table.Rows {
			_ = cw.Write(row)
		}
	case len(res.Data) > 0:
		keys := dataKeys(res)
		_ = cw.Write(keys)
		for _, d := range res.Data {
			row := make([]string, len(keys))
			for i, k := range keys {
				row[i] = cellText(d[k])
			}
			_ = cw.Write(row)
		}
	case res.Value != nil:
		_ = cw.Write([]string{"Column", "Value", "Unit"})
		_ = cw.Write([]string{res.Column, engine.FormatNumber(*res.Value), res.Unit})
	default:
		_ = cw.Write([]string{"Result", "No data"})
	}

	cw.Flush()
	return cw.Error()
}

// dataKeys orders the axis key first, then series keys, then any others.
func dataKeys(res *engine.Result) []string {
	seen := map[string]bool{}
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	add(res.XKey)
	for _, s := range res.SeriesKeys {
		add(s.Key)
	}
	var rest []string
	for _, d := range res.Data {
		for k := range d {
			if !seen[k] {
				rest = append(rest, k)
				seen[k] = true
			}
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmtNum(x)
	}
	return engine.FormatLabel(v)
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var (
		out []byte
		err error
	)
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
