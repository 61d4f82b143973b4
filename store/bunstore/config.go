package bunstore

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// DriverSQLite selects github.com/mattn/go-sqlite3 with the sqlite dialect.
	DriverSQLite = "sqlite3"

	// DriverPostgres selects github.com/lib/pq with the postgres dialect.
	DriverPostgres = "postgres"
)

// Config holds the connection settings of the SQL store.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// DSN is passed to sql.Open unchanged.
	DSN string

	// MaxOpenConns limits the pool. An in-memory sqlite database must use 1,
	// every connection would otherwise see its own empty database.
	MaxOpenConns int

	// MaxIdleConns limits idle connections kept in the pool.
	MaxIdleConns int

	// QueryTimeout bounds every fetch. Zero disables the timeout.
	QueryTimeout time.Duration

	// LogQueries logs every executed statement at debug level.
	LogQueries bool

	// SlowQueryThreshold logs statements slower than this at warn level. Zero disables it.
	SlowQueryThreshold time.Duration
}

// DefaultConfig returns a Config for a private in-memory sqlite database.
func DefaultConfig() Config {
	return Config{
		Driver:             DriverSQLite,
		DSN:                "file::memory:?cache=shared",
		MaxOpenConns:       1,
		MaxIdleConns:       1,
		QueryTimeout:       5 * time.Second,
		LogQueries:         false,
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value any
		rules []validation.Rule
	}{
		{"Driver", c.Driver, []validation.Rule{validation.Required, validation.In(DriverSQLite, DriverPostgres)}},
		{"DSN", c.DSN, []validation.Rule{validation.Required}},
		{"MaxOpenConns", c.MaxOpenConns, []validation.Rule{validation.Min(0)}},
		{"MaxIdleConns", c.MaxIdleConns, []validation.Rule{validation.Min(0)}},
		{"QueryTimeout", int64(c.QueryTimeout), []validation.Rule{validation.Min(int64(0))}},
		{"SlowQueryThreshold", int64(c.SlowQueryThreshold), []validation.Rule{validation.Min(int64(0))}},
	}

	for _, check := range checks {
		if err := validation.Validate(check.value, check.rules...); err != nil {
			return &ConfigError{Field: check.field, Message: err.Error()}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
