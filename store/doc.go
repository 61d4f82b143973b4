// Package store defines the backing-store client the lazy-loading core talks to.
//
// # Overview
//
// The core only ever needs three request/response exchanges:
//
//   - FetchByKey: the row of a type by primary key (owning-side targets, proxies)
//   - FetchByForeignKey: the row of a type referencing a given identifier (inverse one-to-one)
//   - FetchAllByForeignKey: every row referencing a given identifier (inverse one-to-many)
//
// Each call is one round trip. When the requested type is the root of a hierarchy the client
// finds the concrete type in that same round trip, using a union over table-per-class subtype
// tables or the discriminator column of a single-table hierarchy.
//
// # Accounting
//
// WithAccounting decorates any Client so that every call is reported to a stats.Sink before it
// is delegated:
//
//	counted := store.WithAccounting(client, statistics)
//	rec, err := counted.FetchByKey(ctx, userType, int64(1)) // statistics.Count() == 1
//
// # Errors
//
// Missing rows are reported as ErrNotFound. Connectivity failures and timeouts are wrapped in
// *StoreUnavailableError. Neither is retried by the client or the core.
//
// # Implementations
//
// The memstore subpackage keeps rows in memory and is what the core's tests run against.
// The bunstore subpackage issues SQL through bun against sqlite or postgres.
package store
