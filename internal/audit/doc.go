// Package audit implements async event dispatching for security- and
// order-relevant operations of the shopcore API.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, slog, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured record with timestamp, type, subject, order, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the handlers and the
// order workflow.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import any sibling shopcore package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
