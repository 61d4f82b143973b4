package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/stats"
)

// Interface assertion to ensure AccountingClient implements Client
var _ Client = (*AccountingClient)(nil)

// AccountingClient decorates a base client and reports every call to a statistics sink.
// A failed round trip still counts; a call rejected with ErrUnmappedColumn never reached the
// store and does not.
type AccountingClient struct {
	base Client
	sink stats.Sink
}

// WithAccounting wraps base so that each call increments sink exactly once.
func WithAccounting(base Client, sink stats.Sink) *AccountingClient {
	return &AccountingClient{base: base, sink: sink}
}

// FetchByKey delegates to the base client and records the round trip
func (c *AccountingClient) FetchByKey(ctx context.Context, t *metadata.EntityType, id any) (Record, error) {
	rec, err := c.base.FetchByKey(ctx, t, id)
	c.record(t, err)
	return rec, err
}

// FetchByForeignKey delegates to the base client and records the round trip
func (c *AccountingClient) FetchByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) (Record, error) {
	rec, err := c.base.FetchByForeignKey(ctx, t, column, value)
	c.record(t, err)
	return rec, err
}

// FetchAllByForeignKey delegates to the base client and records the round trip
func (c *AccountingClient) FetchAllByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) ([]Record, error) {
	records, err := c.base.FetchAllByForeignKey(ctx, t, column, value)
	c.record(t, err)
	return records, err
}

// Unwrap returns the decorated client.
func (c *AccountingClient) Unwrap() Client {
	return c.base
}

func (c *AccountingClient) record(t *metadata.EntityType, err error) {
	if c.sink == nil || errors.Is(err, ErrUnmappedColumn) {
		return
	}
	c.sink.IncrementQueryCount()
	if recorder, ok := c.sink.(stats.EntityFetchRecorder); ok {
		recorder.RecordEntityFetch(t.Name())
	}
}
