package token

import (
	"fmt"

	"github.com/tallpine/shopcore"
)

// All token failures wrap [shopcore.ErrAuthentication] so the boundary can
// map them without knowing the specific kind.
var (
	// ErrMalformedToken marks input that is not exactly three dot-separated
	// segments, or segments that do not decode.
	ErrMalformedToken = fmt.Errorf("%w: malformed token", shopcore.ErrAuthentication)
	// ErrInvalidSignature marks a structurally valid token whose signature
	// does not verify against the configured secret.
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", shopcore.ErrAuthentication)
	// ErrTokenExpired marks a token whose exp claim is in the past.
	ErrTokenExpired = fmt.Errorf("%w: token expired", shopcore.ErrAuthentication)
	// ErrTokenInvalid marks any other claim validation failure.
	ErrTokenInvalid = fmt.Errorf("%w: invalid token", shopcore.ErrAuthentication)
	// ErrWrongTokenType marks a token presented in a context that requires
	// the other type (a refresh token on a protected route, or vice versa).
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", shopcore.ErrAuthentication)
)
