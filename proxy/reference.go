package proxy

import (
	"context"

	"github.com/goliatone/go-repository-proxy/metadata"
)

// Identifiable is anything carrying an entity key: entities and identity references.
type Identifiable interface {
	Key() Key
}

// IdentityReference stands in for an entity of which only the type and identifier are known.
// Reading the identifier never touches the store.
type IdentityReference struct {
	t       *metadata.EntityType
	id      any
	session *Session
}

// NewIdentityReference builds a reference outside of any session. It can be compared and
// assigned to associations, but Resolve returns ErrDetachedReference.
func NewIdentityReference(t *metadata.EntityType, id any) *IdentityReference {
	return &IdentityReference{t: t, id: id}
}

// Identifier returns the referenced identifier.
func (r *IdentityReference) Identifier() any {
	return r.id
}

// Type returns the referenced type as declared by the association or caller.
func (r *IdentityReference) Type() *metadata.EntityType {
	return r.t
}

// Key implements Identifiable.
func (r *IdentityReference) Key() Key {
	return NewKey(r.t, r.id)
}

// Resolve returns the session's entity for the reference, materializing it first when needed.
func (r *IdentityReference) Resolve(ctx context.Context) (*Entity, error) {
	if r.session == nil {
		return nil, ErrDetachedReference
	}
	e, err := r.session.entityFor(r.t, r.id)
	if err != nil {
		return nil, err
	}
	if err := e.icpt.materialize(ctx, "resolve"); err != nil {
		return nil, err
	}
	return e, nil
}

// SameIdentity reports whether both sides denote the same entity.
func (r *IdentityReference) SameIdentity(other Identifiable) bool {
	if r == nil || isNil(other) {
		return false
	}
	return r.Key().Equal(other.Key())
}

// isNil also catches typed nil entities and references.
func isNil(v Identifiable) bool {
	switch o := v.(type) {
	case nil:
		return true
	case *Entity:
		return o == nil
	case *IdentityReference:
		return o == nil
	}
	return false
}

func (r *IdentityReference) String() string {
	return r.Key().String()
}
