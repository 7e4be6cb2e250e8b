// Package store is the persistence collaborator for the order workflow:
// product, order, and user repositories over database/sql, composable into
// all-or-nothing transactions.
//
// # Drivers
//
// The DSN picks the driver: postgres:// / postgresql:// URLs use pgx,
// memory:// and file paths use the embedded stoolap engine. Queries are
// written with '?' placeholders and rebound for postgres.
//
// # What this package must NOT do
//
//   - Provision schema beyond the idempotent EnsureSchema bootstrap.
//   - Leak database/sql types to callers; the surface is order.Repository
//     plus the user lookups.
package store
