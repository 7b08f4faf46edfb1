// Package datasource runs SQL against registered PostgreSQL and DuckDB
// connections and returns engine query results.
package datasource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/metrics"
)

var (
	// ErrUnknownDatasource is returned for IDs that are not registered.
	ErrUnknownDatasource = errors.New("unknown datasource")
	// ErrUnsupportedType is returned for datasource types with no driver.
	ErrUnsupportedType = errors.New("unsupported datasource type")
	// ErrEmptyQuery is returned when the SQL text is blank.
	ErrEmptyQuery = errors.New("query is empty")
)

// Settings tunes query execution for every source in a registry.
type Settings struct {
	QueryTimeout       time.Duration
	MaxRows            int           // 0 = unlimited
	BreakerMaxFailures uint32        // consecutive failures before the breaker opens
	BreakerOpenTimeout time.Duration // how long the breaker stays open
}

// DefaultSettings returns the execution defaults.
func DefaultSettings() Settings {
	return Settings{
		QueryTimeout:       30 * time.Second,
		MaxRows:            10000,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
	}
}

// Source is one open datasource.
type Source struct {
	cfg      Config
	settings Settings
	db       *sql.DB
	breaker  *gobreaker.CircuitBreaker[*engine.QueryResult]
	log      zerolog.Logger
}

// Open validates cfg and opens its connection pool. It does not ping.
func Open(cfg Config, settings Settings) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	driverName, ok := driverNames[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, cfg.Type)
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasource %s: %w", cfg.ID, err)
	}
	maxConns := cfg.MaxOpenConns
	if maxConns == 0 && cfg.Type == TypeDuckDB && cfg.Path == "" {
		maxConns = 1 // every in-memory connection must see the same database
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	s := &Source{
		cfg:      cfg,
		settings: settings,
		db:       db,
		log:      logging.With().Str("datasource", cfg.ID).Str("type", cfg.Type).Logger(),
	}
	s.breaker = gobreaker.NewCircuitBreaker[*engine.QueryResult](gobreaker.Settings{
		Name:    cfg.ID,
		Timeout: settings.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return settings.BreakerMaxFailures > 0 && counts.ConsecutiveFailures >= settings.BreakerMaxFailures
		},
		// only an unhealthy datasource counts against the breaker, not bad SQL
		IsSuccessful: func(err error) bool { return !isConnectionFailure(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerState(name, to)
			s.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return s, nil
}

// Config returns the source configuration.
func (s *Source) Config() Config { return s.cfg }

// Ping checks the connection.
func (s *Source) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach datasource %s: %w", s.cfg.ID, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) timeout() time.Duration {
	if s.cfg.QueryTimeout > 0 {
		return s.cfg.QueryTimeout
	}
	if s.settings.QueryTimeout > 0 {
		return s.settings.QueryTimeout
	}
	return DefaultSettings().QueryTimeout
}

// Query runs one SQL statement through the circuit breaker and returns the
// normalized result. While the breaker is open calls fail fast with
// gobreaker.ErrOpenState.
func (s *Source) Query(ctx context.Context, rawSQL string) (*engine.QueryResult, error) {
	if strings.TrimSpace(rawSQL) == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	res, err := s.breaker.Execute(func() (*engine.QueryResult, error) {
		return s.query(ctx, rawSQL)
	})
	elapsed := time.Since(start)
	metrics.RecordQuery(s.cfg.ID, s.cfg.Type, elapsed, err)

	if err != nil {
		s.log.Warn().Err(err).Dur("duration", elapsed).Msg("query failed")
		return nil, err
	}
	s.log.Debug().Int("rows", res.Len()).Dur("duration", elapsed).Msg("query executed")
	return res, nil
}

func (s *Source) query(ctx context.Context, rawSQL string) (*engine.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	rows, err := s.db.QueryContext(ctx, rawSQL)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	res, err := scanRows(rows, s.settings.MaxRows)
	if err != nil {
		return nil, err
	}
	if res.Truncated {
		s.log.Warn().Int("rows", res.Len()).Int("max_rows", s.settings.MaxRows).Msg("result truncated at row limit")
	}
	return res, nil
}

// isConnectionFailure reports whether err means the datasource itself is
// unreachable or overloaded. Caller cancellation and statement errors such
// as syntax errors or missing tables do not.
func isConnectionFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isConnectionSQLState(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isConnectionSQLState matches SQLSTATE classes 08 (connection exception),
// 53 (insufficient resources) and 57P (operator intervention: shutdown).
func isConnectionSQLState(code string) bool {
	return strings.HasPrefix(code, "08") ||
		strings.HasPrefix(code, "53") ||
		strings.HasPrefix(code, "57P")
}

// scanRows reads every row into a QueryResult. When maxRows is set it stops
// there and marks the result truncated if more rows were available.
func scanRows(rows *sql.Rows, maxRows int) (*engine.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	dbTypes := make([]string, len(columns))
	for i := range types {
		dbTypes[i] = types[i].DatabaseTypeName()
	}

	out := make([][]engine.Value, 0)
	truncated := false
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]engine.Value, len(columns))
		for i, v := range raw {
			row[i] = normalizeValue(v, dbTypes[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	n := len(out)
	return &engine.QueryResult{Columns: columns, Rows: out, RowCount: &n, Truncated: truncated}, nil
}
