package proxy

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
)

type slotKind int

const (
	// slotDeferred: nothing is held yet. On the owning side a known foreign key may be
	// kept, which is the case of a full proxy waiting for its concrete type.
	slotDeferred slotKind = iota

	// slotReference: an identity reference to the target, no fetch needed for its id.
	slotReference

	// slotLoaded: the association value itself (possibly nil or empty).
	slotLoaded
)

// slot holds the state of one association of one entity instance.
type slot struct {
	kind    slotKind
	hasKey  bool
	key     any
	ref     *IdentityReference
	target  *Entity
	targets []*Entity
}

// Interceptor routes every attribute access of one entity and tracks, attribute by attribute,
// what is available locally. It is not safe for concurrent use.
type Interceptor struct {
	entity  *Entity
	session *Session
	state   State

	values   map[string]any
	resolved map[string]bool
	slots    map[string]*slot
}

func newInterceptor(e *Entity, s *Session) *Interceptor {
	return &Interceptor{
		entity:   e,
		session:  s,
		state:    Uninitialized,
		values:   make(map[string]any),
		resolved: make(map[string]bool),
		slots:    make(map[string]*slot),
	}
}

// State returns the current materialization state.
func (i *Interceptor) State() State {
	return i.state
}

// IsLoaded reports whether reading name would be served without a fetch.
func (i *Interceptor) IsLoaded(name string) bool {
	e := i.entity
	shape := e.shape()
	if name == shape.IDAttribute() {
		return true
	}
	if _, ok := shape.Attribute(name); ok {
		return i.resolved[name]
	}
	a, ok := shape.Association(name)
	if !ok {
		return false
	}

	sl := i.slots[name]
	if sl == nil {
		return false
	}
	switch sl.kind {
	case slotReference, slotLoaded:
		return true
	default:
		// A full proxy counts once its target has been fetched.
		if !sl.hasKey {
			return false
		}
		target, ok := i.session.lookup(a.Target(), sl.key)
		return ok && target.icpt.state == Initialized
	}
}

// ReadAttribute returns the value of name. Scalar attributes and owning foreign keys that are
// not held locally cost one fetch of the whole row; inverse associations and collections cost
// one fetch each on first read, plus the row fetch when the entity is not yet initialized.
// Identifiers are always free.
func (i *Interceptor) ReadAttribute(ctx context.Context, name string) (any, error) {
	e := i.entity
	if name == e.declared.IDAttribute() {
		return e.id, nil
	}

	shape := e.shape()
	if _, ok := shape.Attribute(name); ok {
		return i.readScalar(ctx, name)
	}
	if a, ok := shape.Association(name); ok {
		return i.readAssociation(ctx, a)
	}

	if e.concrete == nil {
		// The name may belong to a subtype; only the row can tell.
		if err := i.materialize(ctx, name); err != nil {
			return nil, err
		}
		return i.ReadAttribute(ctx, name)
	}
	return nil, &UnknownAttributeError{Type: shape.Name(), Attribute: name}
}

// WriteAttribute sets name locally, without fetching. Only that attribute becomes resolved;
// once every attribute of the entity is resolved it counts as initialized.
func (i *Interceptor) WriteAttribute(name string, value any) error {
	e := i.entity
	shape := e.shape()

	if name == shape.IDAttribute() {
		return ErrImmutableIdentifier
	}

	if _, ok := shape.Attribute(name); ok {
		i.values[name] = value
		i.resolved[name] = true
		i.advance()
		return nil
	}

	a, ok := shape.Association(name)
	if !ok {
		return &UnknownAttributeError{Type: shape.Name(), Attribute: name}
	}
	if err := i.writeAssociation(a, value); err != nil {
		return err
	}
	i.advance()
	return nil
}

func (i *Interceptor) readScalar(ctx context.Context, name string) (any, error) {
	if !i.resolved[name] {
		if err := i.materialize(ctx, name); err != nil {
			return nil, err
		}
	}
	return i.values[name], nil
}

func (i *Interceptor) readAssociation(ctx context.Context, a *metadata.Association) (any, error) {
	switch {
	case a.IsCollection():
		targets, err := i.readCollection(ctx, a)
		if err != nil {
			return nil, err
		}
		return targets, nil
	case a.IsOwning():
		target, err := i.readOwning(ctx, a)
		if err != nil || target == nil {
			return nil, err
		}
		return target, nil
	default:
		target, err := i.readInverse(ctx, a)
		if err != nil || target == nil {
			return nil, err
		}
		return target, nil
	}
}

// readOwning needs the foreign key only, which lives in this entity's row.
func (i *Interceptor) readOwning(ctx context.Context, a *metadata.Association) (*Entity, error) {
	if !i.resolved[a.Name()] {
		if err := i.materialize(ctx, a.Name()); err != nil {
			return nil, err
		}
	}

	sl := i.slots[a.Name()]
	if sl == nil {
		return nil, nil
	}
	switch sl.kind {
	case slotLoaded:
		return sl.target, nil
	case slotReference:
		return i.session.entityFor(sl.ref.Type(), sl.ref.Identifier())
	default:
		if sl.key == nil {
			return nil, nil
		}
		return i.session.entityFor(a.Target(), sl.key)
	}
}

// readInverse looks the target up by the foreign key that references this entity. The owner
// row is fetched first so that a missing owner fails here instead of reading as no target.
func (i *Interceptor) readInverse(ctx context.Context, a *metadata.Association) (*Entity, error) {
	if sl := i.slots[a.Name()]; sl != nil && sl.kind == slotLoaded {
		return sl.target, nil
	}
	if err := i.materialize(ctx, a.Name()); err != nil {
		return nil, err
	}

	i.session.logMaterialization(i.entity, a.Name())
	rec, found, err := i.session.materializer.MaterializeInverse(ctx, a, i.entity.id)
	if err != nil {
		return nil, err
	}

	var target *Entity
	if found {
		if target, err = i.session.adopt(a.Target(), rec); err != nil {
			return nil, err
		}
	}
	i.slots[a.Name()] = &slot{kind: slotLoaded, target: target}
	return target, nil
}

func (i *Interceptor) readCollection(ctx context.Context, a *metadata.Association) ([]*Entity, error) {
	if sl := i.slots[a.Name()]; sl != nil && sl.kind == slotLoaded {
		return append([]*Entity(nil), sl.targets...), nil
	}
	if err := i.materialize(ctx, a.Name()); err != nil {
		return nil, err
	}

	i.session.logMaterialization(i.entity, a.Name())
	records, err := i.session.materializer.MaterializeCollection(ctx, a, i.entity.id)
	if err != nil {
		return nil, err
	}

	targets := make([]*Entity, 0, len(records))
	for _, rec := range records {
		target, err := i.session.adopt(a.Target(), rec)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	i.slots[a.Name()] = &slot{kind: slotLoaded, targets: targets}
	return append([]*Entity(nil), targets...), nil
}

func (i *Interceptor) writeAssociation(a *metadata.Association, value any) error {
	invalid := func(reason string) error {
		return &InvalidAttributeValueError{Type: i.entity.shape().Name(), Attribute: a.Name(), Reason: reason}
	}

	if a.IsCollection() {
		targets, ok := value.([]*Entity)
		if !ok && value != nil {
			return invalid(fmt.Sprintf("expected []*Entity, got %T", value))
		}
		for _, target := range targets {
			if target == nil || !target.Type().IsA(a.Target()) {
				return invalid("every element must be an entity of type " + a.Target().Name())
			}
		}
		i.slots[a.Name()] = &slot{kind: slotLoaded, targets: append([]*Entity(nil), targets...)}
		return nil
	}

	var sl *slot
	switch v := value.(type) {
	case nil:
		sl = &slot{kind: slotLoaded}
	case *Entity:
		if v == nil {
			sl = &slot{kind: slotLoaded}
			break
		}
		if !v.Type().IsA(a.Target()) {
			return invalid(fmt.Sprintf("%s is not a %s", v.Type().Name(), a.Target().Name()))
		}
		sl = &slot{kind: slotLoaded, target: v}
	case *IdentityReference:
		if v == nil {
			sl = &slot{kind: slotLoaded}
			break
		}
		if !v.Type().IsA(a.Target()) {
			return invalid(fmt.Sprintf("%s is not a %s", v.Type().Name(), a.Target().Name()))
		}
		ref := i.session.bind(v)
		if a.IsOwning() {
			sl = &slot{kind: slotReference, ref: ref}
		} else {
			target, err := i.session.entityFor(ref.Type(), ref.Identifier())
			if err != nil {
				return err
			}
			sl = &slot{kind: slotLoaded, target: target}
		}
	default:
		return invalid(fmt.Sprintf("expected *Entity or *IdentityReference, got %T", value))
	}

	i.slots[a.Name()] = sl
	if a.IsOwning() {
		i.resolved[a.Name()] = true
	}
	return nil
}

// materialize fetches the entity's row once and fills every attribute that was not written
// locally. It is a no-op on initialized entities.
func (i *Interceptor) materialize(ctx context.Context, reason string) error {
	if i.state == Initialized {
		return nil
	}

	e := i.entity
	t := e.concrete
	if t == nil {
		t = e.declared
	}

	i.session.logMaterialization(e, reason)
	rec, err := i.session.materializer.Materialize(ctx, t, e.id)
	if err != nil {
		return err
	}
	return i.apply(rec)
}

// apply fills unresolved attributes from a fetched row and marks the entity initialized.
func (i *Interceptor) apply(rec store.Record) error {
	e := i.entity

	concrete, ok := i.session.registry.Entity(rec.Type)
	if !ok {
		return &UnknownEntityTypeError{Name: rec.Type}
	}
	if !concrete.IsA(e.declared) {
		return &EntityNotFoundError{Type: e.declared.Name(), ID: e.id}
	}
	e.concrete = concrete

	for _, attr := range concrete.Attributes() {
		if i.resolved[attr.Name] {
			continue
		}
		i.values[attr.Name] = rec.Values[attr.Column]
		i.resolved[attr.Name] = true
	}

	for _, a := range concrete.Associations() {
		if !a.IsOwning() || i.resolved[a.Name()] {
			continue
		}
		i.slots[a.Name()] = i.owningSlot(a, rec.Values[a.ForeignKey()])
		i.resolved[a.Name()] = true
	}

	i.state = Initialized
	return nil
}

// owningSlot represents a freshly read foreign key the way the association's policy asks for.
func (i *Interceptor) owningSlot(a *metadata.Association, key any) *slot {
	if key == nil {
		return &slot{kind: slotLoaded}
	}
	if i.session.registry.RepresentationFor(a) == metadata.IdentityReference {
		return &slot{kind: slotReference, ref: i.session.reference(a.Target(), key)}
	}
	return &slot{kind: slotDeferred, hasKey: true, key: key}
}

// advance moves the state forward after a local write.
func (i *Interceptor) advance() {
	if i.state == Initialized {
		return
	}
	if i.allResolved() {
		i.state = Initialized
		return
	}
	i.state = PartiallyInitialized
}

func (i *Interceptor) allResolved() bool {
	t := i.entity.concrete
	if t == nil {
		return false
	}
	for _, attr := range t.Attributes() {
		if !i.resolved[attr.Name] {
			return false
		}
	}
	for _, a := range t.Associations() {
		if a.IsOwning() && !i.resolved[a.Name()] {
			return false
		}
	}
	return true
}
