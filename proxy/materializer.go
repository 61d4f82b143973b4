package proxy

import (
	"context"
	"errors"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
)

// Materializer turns identifiers into rows. It holds no state besides its client and issues
// exactly one fetch per call; callers are expected to skip it for initialized entities.
type Materializer struct {
	client store.Client
}

// NewMaterializer returns a materializer reading through client.
func NewMaterializer(client store.Client) *Materializer {
	return &Materializer{client: client}
}

// Materialize fetches the row of t identified by id by primary key. When t has subtypes the
// row's concrete type is discovered in the same round trip and reported on the record.
func (m *Materializer) Materialize(ctx context.Context, t *metadata.EntityType, id any) (store.Record, error) {
	rec, err := m.client.FetchByKey(ctx, t, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Record{}, &EntityNotFoundError{Type: t.Name(), ID: id}
	}
	if err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

// MaterializeInverse fetches the target of an inverse to-one association: the target row whose
// owning foreign key references ownerID. The boolean is false when no row references the owner,
// which is a valid empty association.
func (m *Materializer) MaterializeInverse(ctx context.Context, a *metadata.Association, ownerID any) (store.Record, bool, error) {
	rec, err := m.client.FetchByForeignKey(ctx, a.Target(), a.ForeignKey(), ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, err
	}
	return rec, true, nil
}

// MaterializeCollection fetches every target row of a one-to-many association.
func (m *Materializer) MaterializeCollection(ctx context.Context, a *metadata.Association, ownerID any) ([]store.Record, error) {
	return m.client.FetchAllByForeignKey(ctx, a.Target(), a.ForeignKey(), ownerID)
}
