// Package shopcore is the shared surface of the shopcore order API: the
// error taxonomy every component reports through, and the Principal type
// produced by the auth guard.
//
// The package is dependency-free on purpose. Components (token, router,
// middleware, order, internal/rate, internal/store) import shopcore; shopcore
// imports none of them.
//
// # Error taxonomy
//
// Components wrap the most specific failure around one of the category
// sentinels, so the HTTP boundary can map any error to a transport status
// with a single errors.Is walk:
//
//   - [ErrValidation] — bad input shape, rejected before side effects
//   - [ErrAuthentication] — missing/malformed/expired/forged credential
//   - [ErrAuthorization] — valid credential, insufficient capability
//   - [ErrNotFound] — missing resource or unmatched route
//   - [ErrConflict] — insufficient stock, invalid status transition
//   - [ErrRateLimited] — admission control rejection, carries retry-after
//   - [ErrInternal] — unexpected persistence or dependency failure
//
// # What this package must NOT do
//
//   - Perform I/O or import any other shopcore package.
//   - Grow component-specific logic; it holds shared vocabulary only.
package shopcore
