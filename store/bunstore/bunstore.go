// Package bunstore implements store.Client on top of github.com/uptrace/bun. Rows are read as
// column maps so that any declared entity type can be fetched without a Go struct per table.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
)

// Interface assertion to ensure Client implements store.Client
var _ store.Client = (*Client)(nil)

// Client runs every fetch as exactly one SQL statement.
type Client struct {
	db     *bun.DB
	cfg    Config
	logger *zap.SugaredLogger
}

// Open validates cfg, opens the connection pool and installs the query logger.
// A nil logger disables logging.
func Open(cfg Config, logger *zap.SugaredLogger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, store.Unavailable("open", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)

	var db *bun.DB
	switch cfg.Driver {
	case DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	return New(db, cfg, logger), nil
}

// New wraps an existing bun.DB. cfg supplies the timeout and logging settings only.
func New(db *bun.DB, cfg Config, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db.AddQueryHook(&queryLogger{
		logger:     logger,
		logQueries: cfg.LogQueries,
		slow:       cfg.SlowQueryThreshold,
	})
	return &Client{db: db, cfg: cfg, logger: logger}
}

// DB exposes the underlying bun.DB, for schema setup and seeding.
func (c *Client) DB() *bun.DB {
	return c.db
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return store.Unavailable("ping", c.db.PingContext(ctx))
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Insert writes one row of the concrete type t. Rows of a single-table hierarchy get their
// discriminator value set.
func (c *Client) Insert(ctx context.Context, t *metadata.EntityType, values map[string]any) error {
	if t.IsAbstract() {
		return fmt.Errorf("bunstore: cannot insert a row of abstract type %s", t.Name())
	}

	row := make(map[string]interface{}, len(values)+1)
	for column, v := range values {
		row[column] = v
	}
	if t.Inheritance() == metadata.InheritanceSingleTable {
		row[t.DiscriminatorColumn()] = t.DiscriminatorValue()
	}

	_, err := c.db.NewInsert().Model(&row).TableExpr("?", bun.Ident(t.Table())).Exec(ctx)
	if err != nil {
		return store.Unavailable("insert", err)
	}
	return nil
}

// FetchByKey implements store.Client.
func (c *Client) FetchByKey(ctx context.Context, t *metadata.EntityType, id any) (store.Record, error) {
	return c.fetchOne(ctx, "fetch by key", t, t.IDColumn(), id)
}

// FetchByForeignKey implements store.Client.
func (c *Client) FetchByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) (store.Record, error) {
	return c.fetchOne(ctx, "fetch by foreign key", t, column, value)
}

// FetchAllByForeignKey implements store.Client.
func (c *Client) FetchAllByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) ([]store.Record, error) {
	return c.fetch(ctx, "fetch all by foreign key", t, column, value)
}

func (c *Client) fetchOne(ctx context.Context, op string, t *metadata.EntityType, column string, value any) (store.Record, error) {
	records, err := c.fetch(ctx, op, t, column, value)
	if err != nil {
		return store.Record{}, err
	}
	switch len(records) {
	case 0:
		return store.Record{}, store.ErrNotFound
	case 1:
		return records[0], nil
	default:
		return store.Record{}, store.ErrMultipleRows
	}
}

func (c *Client) fetch(ctx context.Context, op string, t *metadata.EntityType, column string, value any) ([]store.Record, error) {
	query, args := selectQuery(t, column, store.NormalizeValue(value))
	if query == "" {
		return nil, fmt.Errorf("%w: %s.%s", store.ErrUnmappedColumn, t.Name(), column)
	}

	if c.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()
	}

	var rows []map[string]interface{}
	if err := c.db.NewRaw(query, args...).Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, store.Unavailable(op, err)
	}

	records := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(t, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// toRecord normalizes driver values and resolves the concrete type of the row.
func toRecord(t *metadata.EntityType, row map[string]interface{}) (store.Record, error) {
	values := make(map[string]any, len(row))
	for column, v := range row {
		values[column] = store.NormalizeValue(v)
	}

	switch t.Inheritance() {
	case metadata.InheritanceSingleTable:
		disc, _ := values[t.DiscriminatorColumn()].(string)
		delete(values, t.DiscriminatorColumn())
		for _, ct := range t.ConcreteTypes() {
			if ct.DiscriminatorValue() == disc {
				return store.Record{Type: ct.Name(), Values: values}, nil
			}
		}
		return store.Record{}, fmt.Errorf("bunstore: unknown discriminator %q in %s", disc, t.Table())
	default:
		name, _ := values[typeColumn].(string)
		delete(values, typeColumn)
		if name == "" {
			name = t.Name()
		}
		return store.Record{Type: name, Values: values}, nil
	}
}
