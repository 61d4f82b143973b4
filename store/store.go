package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-repository-proxy/metadata"
)

var (
	// ErrNotFound is returned when a fetch matches no row.
	ErrNotFound = errors.New("store: no row found")

	// ErrMultipleRows is returned when a single-row fetch matches more than one row.
	ErrMultipleRows = errors.New("store: more than one row found")

	// ErrUnmappedColumn is returned, without contacting the store, when no table of the
	// hierarchy carries the filtered column. Such a call is not a round trip.
	ErrUnmappedColumn = errors.New("store: column is not mapped by any table")
)

// Record is one fetched row. Values are keyed by column name; Type is the concrete entity
// type the row belongs to, which may be a subtype of the type that was asked for.
type Record struct {
	Type   string
	Values map[string]any
}

// Value returns the value of a column.
func (r Record) Value(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Client is the backing store consumed by the materializer. Every call is exactly one
// round trip. When t has subtypes, implementations search the whole hierarchy in that single
// round trip and report the concrete type on the Record.
type Client interface {
	// FetchByKey fetches the row of t identified by id.
	FetchByKey(ctx context.Context, t *metadata.EntityType, id any) (Record, error)

	// FetchByForeignKey fetches the single row of t whose column equals value.
	FetchByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) (Record, error)

	// FetchAllByForeignKey fetches every row of t whose column equals value.
	FetchAllByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) ([]Record, error)
}

// StoreUnavailableError wraps a failure of the backing store (connectivity, timeout).
// It is propagated unchanged through the loading path and never retried there.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a *StoreUnavailableError unless it already is one.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var unavailable *StoreUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

// IsNotFound checks if an error is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable checks if an error is a *StoreUnavailableError.
func IsUnavailable(err error) bool {
	var unavailable *StoreUnavailableError
	return errors.As(err, &unavailable)
}

// NormalizeValue folds the many Go representations drivers use for the same key into one:
// every integer kind becomes int64 and byte slices become strings. Identifiers are compared
// after normalization.
func NormalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case []byte:
		return string(n)
	default:
		return v
	}
}
