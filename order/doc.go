// Package order holds the catalog and order domain model and the
// transactional order workflow: stock validation, atomic placement,
// status transitions, and cancellation.
package order
