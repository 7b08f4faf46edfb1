// Package nexus turns SQL query results into render-ready dashboard panel
// data.
//
// Usage:
//
//	import "github.com/spektr-org/nexus/engine"
//
//	res, err := engine.Transform("timeseries", queryResult,
//	    engine.WithXAxisKey("time"),
//	    engine.WithUnit("ms"),
//	)
//
// The engine takes a tabular result (column names plus rows of loosely typed
// cells) and returns per-panel output: chart data with series keys, a single
// stat or gauge value, histogram or heatmap buckets, or table data. It never
// errors on malformed data and never calls an external service.
//
// Around the engine:
//   - ingest decodes CSV, JSON and Arrow IPC results
//   - datasource runs SQL on PostgreSQL and DuckDB
//   - schema profiles columns; suggest lays out a dashboard from a result
//   - server exposes all of it over HTTP (cmd/nexus-server)
//   - cmd/nexus is the command-line front end
package nexus
