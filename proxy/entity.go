package proxy

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-proxy/metadata"
)

// Entity is a persistent instance handed out by a Session. All access beyond the identifier
// goes through its Interceptor, which decides when the store has to be consulted.
type Entity struct {
	id       any
	declared *metadata.EntityType
	concrete *metadata.EntityType
	session  *Session
	icpt     *Interceptor
}

func newEntity(s *Session, t *metadata.EntityType, id any) *Entity {
	e := &Entity{id: id, declared: t, session: s}
	if !t.IsAbstract() && !t.IsPolymorphic() {
		e.concrete = t
	}
	e.icpt = newInterceptor(e, s)
	return e
}

// ID returns the identifier. It never fetches.
func (e *Entity) ID() any {
	return e.id
}

// Key implements Identifiable.
func (e *Entity) Key() Key {
	return NewKey(e.declared, e.id)
}

// Type returns the type the entity is known as. For a proxy of a polymorphic association this
// is the association's target, not necessarily the runtime type.
func (e *Entity) Type() *metadata.EntityType {
	if e.concrete != nil {
		return e.concrete
	}
	return e.declared
}

// ConcreteType returns the runtime type, fetching the row when it is not known yet.
func (e *Entity) ConcreteType(ctx context.Context) (*metadata.EntityType, error) {
	if e.concrete != nil {
		return e.concrete, nil
	}
	if err := e.icpt.materialize(ctx, "concrete type"); err != nil {
		return nil, err
	}
	return e.concrete, nil
}

// Get reads an attribute or association through the interceptor.
func (e *Entity) Get(ctx context.Context, name string) (any, error) {
	return e.icpt.ReadAttribute(ctx, name)
}

// Set writes an attribute or association locally.
func (e *Entity) Set(name string, value any) error {
	return e.icpt.WriteAttribute(name, value)
}

// Related reads a to-one association. A missing target is returned as nil without error.
func (e *Entity) Related(ctx context.Context, name string) (*Entity, error) {
	v, err := e.Get(ctx, name)
	if err != nil || v == nil {
		return nil, err
	}
	target, ok := v.(*Entity)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a to-one association", e.Type().Name(), name)
	}
	return target, nil
}

// Collection reads a one-to-many association.
func (e *Entity) Collection(ctx context.Context, name string) ([]*Entity, error) {
	v, err := e.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	targets, ok := v.([]*Entity)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a collection", e.Type().Name(), name)
	}
	return targets, nil
}

// Reference returns an identity reference to the target of an owning to-one association.
// Only the foreign key is needed, so this costs at most the owner's own row.
func (e *Entity) Reference(ctx context.Context, name string) (*IdentityReference, error) {
	a, ok := e.shape().Association(name)
	if !ok {
		return nil, &UnknownAttributeError{Type: e.Type().Name(), Attribute: name}
	}
	if !a.IsOwning() || a.IsCollection() {
		return nil, fmt.Errorf("%s is not an owning to-one association", a)
	}

	target, err := e.icpt.readOwning(ctx, a)
	if err != nil || target == nil {
		return nil, err
	}
	return e.session.reference(target.declared, target.id), nil
}

// State returns the interceptor state.
func (e *Entity) State() State {
	return e.icpt.state
}

// IsLoaded reports whether reading name is free.
func (e *Entity) IsLoaded(name string) bool {
	return e.icpt.IsLoaded(name)
}

// Interceptor exposes the interceptor attached to the entity.
func (e *Entity) Interceptor() *Interceptor {
	return e.icpt
}

// SameIdentity reports whether other denotes this entity.
func (e *Entity) SameIdentity(other Identifiable) bool {
	if e == nil || isNil(other) {
		return false
	}
	return e.Key().Equal(other.Key())
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%v)", e.Type().Name(), e.id)
}

// shape is the most precise type known without fetching.
func (e *Entity) shape() *metadata.EntityType {
	return e.Type()
}
