// Package rate provides sliding-window request admission control keyed by
// client identifier.
//
// # Window semantics
//
// Each client owns an ordered sequence of request timestamps inside a
// trailing window. On every request, entries older than the window are
// evicted; the request is admitted and recorded only while the remaining
// count is below the limit. Rejections report a positive retry-after derived
// from the oldest surviving entry.
//
// Two implementations share the [Limiter] interface: an in-process map with
// per-client locks for single-instance deployments, and a Redis sorted-set
// window for horizontally scaled ones.
//
// # What this package must NOT do
//
//   - Map rejections to transport status codes (that is the boundary's job).
//   - Keep per-client state forever; idle clients are swept.
package rate
