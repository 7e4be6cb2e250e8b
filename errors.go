package shopcore

import "errors"

// Category sentinels. Components wrap their specific failures around exactly
// one of these; the boundary maps categories to transport status codes.
var (
	// ErrValidation marks input rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication marks a missing, malformed, expired, or forged credential.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization marks a valid credential with insufficient capability.
	ErrAuthorization = errors.New("authorization failed")
	// ErrNotFound marks a missing resource or an unmatched route.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict marks a state conflict such as insufficient stock or an
	// invalid status transition.
	ErrConflict = errors.New("conflict")
	// ErrRateLimited marks a request rejected by admission control.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInternal marks an unexpected persistence or dependency failure.
	ErrInternal = errors.New("internal error")
)
