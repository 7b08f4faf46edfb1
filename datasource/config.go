package datasource

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/spektr-org/nexus/validation"
)

// Supported datasource types.
const (
	TypePostgres = "postgres"
	TypeDuckDB   = "duckdb"
)

// driverNames maps datasource types to database/sql driver names.
var driverNames = map[string]string{
	TypePostgres: "pgx",
	TypeDuckDB:   "duckdb",
}

const redacted = "********"

// Config describes one datasource connection.
type Config struct {
	ID       string `json:"id" koanf:"id" validate:"required,max=64"`
	Name     string `json:"name" koanf:"name"`
	Type     string `json:"type" koanf:"type" validate:"required,oneof=postgres duckdb"`
	Host     string `json:"host,omitempty" koanf:"host" validate:"required_if=Type postgres"`
	Port     int    `json:"port,omitempty" koanf:"port" validate:"omitempty,min=1,max=65535"`
	Database string `json:"database,omitempty" koanf:"database" validate:"required_if=Type postgres"`
	User     string `json:"user,omitempty" koanf:"user"`
	Password string `json:"password,omitempty" koanf:"password"`
	SSLMode  string `json:"sslMode,omitempty" koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	// Path is the DuckDB database file. Empty means an in-memory database.
	Path string `json:"path,omitempty" koanf:"path"`

	MaxOpenConns int           `json:"maxOpenConns,omitempty" koanf:"max_open_conns" validate:"omitempty,min=1,max=100"`
	QueryTimeout time.Duration `json:"queryTimeout,omitempty" koanf:"query_timeout"`
}

// Validate checks the config against its field rules.
func (c Config) Validate() error {
	return validation.Struct(c)
}

// Redacted returns a copy safe to return from the API.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = redacted
	}
	return c
}

// DSN builds the driver connection string.
func (c Config) DSN() (string, error) {
	switch c.Type {
	case TypePostgres:
		port := c.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
			Path:   "/" + c.Database,
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		if c.SSLMode != "" {
			q.Set("sslmode", c.SSLMode)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	case TypeDuckDB:
		return c.Path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, c.Type)
}
