// Package memstore provides an in-memory store.Client. Rows are kept per concrete entity type,
// which lets it answer polymorphic fetches the same way a SQL store answers them with a union.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
)

// Interface assertion to ensure Store implements store.Client
var _ store.Client = (*Store)(nil)

// Store keeps rows in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	rows    map[string][]map[string]any
	failure error
}

// New returns an empty store.
func New() *Store {
	return &Store{rows: make(map[string][]map[string]any)}
}

// Insert adds a row for the concrete type t. Values are keyed by column and must hold the
// identifier column.
func (s *Store) Insert(t *metadata.EntityType, values map[string]any) error {
	if t.IsAbstract() {
		return fmt.Errorf("memstore: cannot insert a row of abstract type %s", t.Name())
	}
	id, ok := values[t.IDColumn()]
	if !ok || id == nil {
		return fmt.Errorf("memstore: row of %s has no %s", t.Name(), t.IDColumn())
	}

	row := make(map[string]any, len(values))
	for column, v := range values {
		row[column] = store.NormalizeValue(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, concrete := range t.Root().ConcreteTypes() {
		for _, existing := range s.rows[concrete.Name()] {
			if equal(existing[t.IDColumn()], row[t.IDColumn()]) {
				return fmt.Errorf("memstore: duplicate %s identifier %v", t.Root().Name(), id)
			}
		}
	}
	s.rows[t.Name()] = append(s.rows[t.Name()], row)
	return nil
}

// Delete removes the row of t (or of any of its subtypes) identified by id.
func (s *Store) Delete(t *metadata.EntityType, id any) bool {
	id = store.NormalizeValue(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, concrete := range t.ConcreteTypes() {
		rows := s.rows[concrete.Name()]
		for i, row := range rows {
			if equal(row[t.IDColumn()], id) {
				s.rows[concrete.Name()] = append(rows[:i], rows[i+1:]...)
				return true
			}
		}
	}
	return false
}

// FailWith makes every following fetch fail with a *store.StoreUnavailableError wrapping err.
// Passing nil restores normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// FetchByKey implements store.Client.
func (s *Store) FetchByKey(ctx context.Context, t *metadata.EntityType, id any) (store.Record, error) {
	return s.fetchOne(ctx, "fetch by key", t, t.IDColumn(), id)
}

// FetchByForeignKey implements store.Client.
func (s *Store) FetchByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) (store.Record, error) {
	return s.fetchOne(ctx, "fetch by foreign key", t, column, value)
}

// FetchAllByForeignKey implements store.Client.
func (s *Store) FetchAllByForeignKey(ctx context.Context, t *metadata.EntityType, column string, value any) ([]store.Record, error) {
	return s.scan(ctx, "fetch all by foreign key", t, column, value)
}

func (s *Store) fetchOne(ctx context.Context, op string, t *metadata.EntityType, column string, value any) (store.Record, error) {
	records, err := s.scan(ctx, op, t, column, value)
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

func (s *Store) scan(ctx context.Context, op string, t *metadata.EntityType, column string, value any) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Unavailable(op, err)
	}

	value = store.NormalizeValue(value)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failure != nil {
		return nil, store.Unavailable(op, s.failure)
	}

	var records []store.Record
	for _, concrete := range t.ConcreteTypes() {
		for _, row := range s.rows[concrete.Name()] {
			if !equal(row[column], value) {
				continue
			}
			records = append(records, store.Record{Type: concrete.Name(), Values: copyRow(row)})
		}
	}
	return records, nil
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
