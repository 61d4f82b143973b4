package di

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/proxy"
	"github.com/goliatone/go-repository-proxy/store"
	"github.com/goliatone/go-repository-proxy/store/bunstore"
	"go.uber.org/zap"
)

// Config holds everything the container needs to build its singletons.
type Config struct {
	Store bunstore.Config

	// IdentityReferences lets owning-side associations to non-polymorphic targets be
	// represented by identity references. Disabling it makes every association a full proxy.
	IdentityReferences bool

	// LogLevel enables a production zap logger at that level. Empty disables logging.
	LogLevel string
}

// DefaultConfig returns a Config backed by an in-memory sqlite database.
func DefaultConfig() Config {
	return Config{
		Store:              bunstore.DefaultConfig(),
		IdentityReferences: true,
	}
}

// Validate checks the container settings and the store settings.
func (c Config) Validate() error {
	if err := validation.Validate(c.LogLevel, validation.In("debug", "info", "warn", "error")); err != nil {
		return &bunstore.ConfigError{Field: "LogLevel", Message: err.Error()}
	}
	return c.Store.Validate()
}

// Container provides dependency injection for the lazy loading components.
// It manages the singleton registry, store client and logger, and hands out sessions.
type Container struct {
	registry *metadata.Registry
	client   store.Client
	sql      *bunstore.Client
	logger   *zap.SugaredLogger
	config   Config
}

// NewContainer builds the registry from decls and opens the SQL store described by config.
func NewContainer(config Config, decls []metadata.EntityDecl) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}

	registry, err := metadata.Build(decls, metadata.WithIdentityReferences(config.IdentityReferences))
	if err != nil {
		return nil, err
	}

	sql, err := bunstore.Open(config.Store, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	return &Container{
		registry: registry,
		client:   sql,
		sql:      sql,
		logger:   logger,
		config:   config,
	}, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults(decls []metadata.EntityDecl) (*Container, error) {
	return NewContainer(DefaultConfig(), decls)
}

// NewContainerWithClient builds the registry from decls and reads through client instead of
// opening a SQL store. config.Store is ignored.
func NewContainerWithClient(config Config, decls []metadata.EntityDecl, client store.Client) (*Container, error) {
	if client == nil {
		return nil, errors.New("di: a store client is required")
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}

	registry, err := metadata.Build(decls, metadata.WithIdentityReferences(config.IdentityReferences))
	if err != nil {
		return nil, err
	}

	return &Container{
		registry: registry,
		client:   client,
		logger:   logger,
		config:   config,
	}, nil
}

// Registry returns the singleton metadata registry.
func (c *Container) Registry() *metadata.Registry {
	return c.registry
}

// Client returns the store client sessions read through.
func (c *Container) Client() store.Client {
	return c.client
}

// SQL returns the SQL store, or nil when the container was built around another client.
func (c *Container) SQL() *bunstore.Client {
	return c.sql
}

// Logger returns the container logger.
func (c *Container) Logger() *zap.SugaredLogger {
	return c.logger
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

// NewSession opens a unit of work. Statistics attached to ctx with stats.WithStatistics are
// picked up unless opts sets its own.
func (c *Container) NewSession(ctx context.Context, opts ...proxy.SessionOptions) *proxy.Session {
	var o proxy.SessionOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger == nil {
		o.Logger = c.logger.Named("session")
	}
	return proxy.NewSession(ctx, c.registry, c.client, o)
}

// Close releases the SQL store, if any.
func (c *Container) Close() error {
	if c.sql == nil {
		return nil
	}
	return c.sql.Close()
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		return zap.NewNop().Sugar(), nil
	}

	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, &bunstore.ConfigError{Field: "LogLevel", Message: err.Error()}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomic
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
