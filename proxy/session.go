package proxy

import (
	"context"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/stats"
	"github.com/goliatone/go-repository-proxy/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// Statistics receives one increment per round trip. When nil the statistics attached to
	// the context are used, or a fresh instance.
	Statistics *stats.Statistics

	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Session is a unit of work: it owns an identity map so that an entity is represented by a
// single instance, and it counts every round trip it causes. A session and the entities it hands
// out must be used from one goroutine at a time.
type Session struct {
	id           string
	registry     *metadata.Registry
	materializer *Materializer
	statistics   *stats.Statistics
	logger       *zap.SugaredLogger
	entities     map[string]*Entity
}

// NewSession opens a unit of work reading through client.
func NewSession(ctx context.Context, registry *metadata.Registry, client store.Client, opts SessionOptions) *Session {
	statistics := opts.Statistics
	if statistics == nil {
		if fromCtx, ok := stats.FromContext(ctx); ok {
			statistics = fromCtx
		} else {
			statistics = stats.New()
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	id := uuid.NewString()
	return &Session{
		id:           id,
		registry:     registry,
		materializer: NewMaterializer(store.WithAccounting(client, statistics)),
		statistics:   statistics,
		logger:       logger.With("session", id),
		entities:     make(map[string]*Entity),
	}
}

// ID returns the session identifier used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Statistics returns the fetch accounting of this session.
func (s *Session) Statistics() *stats.Statistics {
	return s.statistics
}

// Registry returns the metadata the session resolves types against.
func (s *Session) Registry() *metadata.Registry {
	return s.registry
}

// Get returns the initialized entity, fetching its row when the session does not hold it yet.
// A missing row is reported as *EntityNotFoundError.
func (s *Session) Get(ctx context.Context, entity string, id any) (*Entity, error) {
	t, err := s.entityType(entity)
	if err != nil {
		return nil, err
	}
	e, err := s.entityFor(t, id)
	if err != nil {
		return nil, err
	}
	if err := e.icpt.materialize(ctx, "get"); err != nil {
		return nil, err
	}
	return e, nil
}

// Load returns a proxy for the entity without touching the store. Existence is only checked
// when something other than the identifier is read.
func (s *Session) Load(entity string, id any) (*Entity, error) {
	t, err := s.entityType(entity)
	if err != nil {
		return nil, err
	}
	return s.entityFor(t, id)
}

// Reference returns an identity reference bound to this session.
func (s *Session) Reference(entity string, id any) (*IdentityReference, error) {
	t, err := s.entityType(entity)
	if err != nil {
		return nil, err
	}
	return s.reference(t, id), nil
}

// Contains reports whether the identity map holds the entity.
func (s *Session) Contains(entity string, id any) bool {
	t, ok := s.registry.Entity(entity)
	if !ok {
		return false
	}
	_, found := s.lookup(t, id)
	return found
}

// Clear empties the identity map. Entities handed out earlier stay usable but are no longer
// shared with later lookups.
func (s *Session) Clear() {
	s.entities = make(map[string]*Entity)
}

func (s *Session) entityType(name string) (*metadata.EntityType, error) {
	t, ok := s.registry.Entity(name)
	if !ok {
		return nil, &UnknownEntityTypeError{Name: name}
	}
	return t, nil
}

func (s *Session) lookup(t *metadata.EntityType, id any) (*Entity, bool) {
	e, ok := s.entities[NewKey(t, id).String()]
	return e, ok
}

// entityFor returns the single instance for (t, id), creating an uninitialized one when the
// session has not seen it. An instance already known as a narrower or unrelated type is
// rejected as not found.
func (s *Session) entityFor(t *metadata.EntityType, id any) (*Entity, error) {
	id = store.NormalizeValue(id)
	if e, ok := s.lookup(t, id); ok {
		switch {
		case e.concrete != nil && !e.concrete.IsA(t):
			return nil, &EntityNotFoundError{Type: t.Name(), ID: id}
		case t.IsA(e.declared):
			e.declared = t
		case !e.declared.IsA(t):
			return nil, &EntityNotFoundError{Type: t.Name(), ID: id}
		}
		return e, nil
	}

	e := newEntity(s, t, id)
	s.entities[e.Key().String()] = e
	return e, nil
}

// adopt registers a row fetched on behalf of an association and returns its entity.
func (s *Session) adopt(t *metadata.EntityType, rec store.Record) (*Entity, error) {
	concrete, ok := s.registry.Entity(rec.Type)
	if !ok {
		return nil, &UnknownEntityTypeError{Name: rec.Type}
	}
	e, err := s.entityFor(t, rec.Values[concrete.IDColumn()])
	if err != nil {
		return nil, err
	}
	if e.icpt.state != Initialized {
		if err := e.icpt.apply(rec); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (s *Session) reference(t *metadata.EntityType, id any) *IdentityReference {
	return &IdentityReference{t: t, id: store.NormalizeValue(id), session: s}
}

// bind attaches a reference built elsewhere to this session.
func (s *Session) bind(r *IdentityReference) *IdentityReference {
	if r.session == s {
		return r
	}
	return s.reference(r.t, r.id)
}

func (s *Session) logMaterialization(e *Entity, reason string) {
	s.logger.Debugw("materializing", "entity", e.Key().String(), "type", e.Type().Name(), "trigger", reason, "state", e.icpt.state.String())
}
