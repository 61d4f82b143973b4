// Package proxy implements lazy association loading: entities are handed out before their rows
// are read, and every attribute access decides whether the store has to be consulted.
//
// # Overview
//
// A Session is the unit of work. It resolves types against a metadata.Registry, reads rows
// through a store.Client decorated with fetch accounting, and keeps an identity map so that a
// given (type, id) is always the same *Entity.
//
//	session := proxy.NewSession(ctx, registry, client, proxy.SessionOptions{Logger: logger})
//
//	address, _ := session.Get(ctx, "Address", 2) // 1 round trip, initialized
//	user, _ := address.Related(ctx, "user")      // identity reference, no round trip
//	_ = user.ID()                                // still no round trip
//	name, _ := user.Get(ctx, "name")             // 1 round trip
//
// # Representations
//
// How an association target is represented is decided once per association by the registry:
//
//   - Owning side, non-polymorphic target: an IdentityReference built from the foreign key.
//     The target's identifier is free; anything else fetches the target by primary key.
//   - Owning side, polymorphic target: a full proxy. The foreign key is known but the concrete
//     type is not, so the first access beyond the identifier (ConcreteType included) fetches the
//     target, discovering its type in the same round trip.
//   - Inverse side and collections: deferred. The first read runs one query on the target table
//     filtered by the owning foreign key.
//
// # Attribute tracking
//
// The Interceptor tracks attributes individually. Writes resolve only the written attribute and
// are never overwritten by a later fetch. An entity moves from Uninitialized through
// PartiallyInitialized to Initialized and never back.
//
// # Errors
//
// Nothing fails at construction. A missing row surfaces as *EntityNotFoundError at the access
// that needed it; store failures surface as *store.StoreUnavailableError, unchanged and not
// retried.
//
// # Concurrency
//
// Sessions, entities and interceptors are not synchronized. Use one session per goroutine;
// the registry and statistics they share are safe for concurrent use.
package proxy
