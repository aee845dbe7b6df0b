package httpx

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryAfterBackOff stretches the wrapped policy's intervals to honor the
// most recent Retry-After hint recorded via Observe. The hint applies to
// the next interval only.
type RetryAfterBackOff struct {
	backoff.BackOff
	hint time.Duration
}

// Observe records the Retry-After hint carried by err, if any.
func (b *RetryAfterBackOff) Observe(err error) {
	var serr *StatusError
	if errors.As(err, &serr) {
		b.hint = serr.RetryAfter
	}
}

func (b *RetryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d != backoff.Stop && b.hint > d {
		d = b.hint
	}
	b.hint = 0
	return d
}
