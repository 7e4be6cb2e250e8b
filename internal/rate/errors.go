package rate

import (
	"fmt"

	"github.com/tallpine/shopcore"
)

// ErrRedisUnavailable marks an admission check that could not reach the
// shared counter store. It wraps [shopcore.ErrInternal]: an unavailable
// limiter backend is an infrastructure failure, not a rejection.
var ErrRedisUnavailable = fmt.Errorf("%w: rate limit store unavailable", shopcore.ErrInternal)
