package wishlist

import (
	"time"

	apperrors "github.com/pawmart/storefront/pkg/errors"
)

// RetryPolicy decides whether a failed command runs again. attempt counts
// from 1 for the attempt that just failed.
type RetryPolicy interface {
	Next(attempt int, err error) (wait time.Duration, retry bool)
}

// NoRetry gives up after the first failure.
type NoRetry struct{}

func (NoRetry) Next(int, error) (time.Duration, bool) { return 0, false }

// maxBackoff caps the wait of a Backoff without Max.
const maxBackoff = time.Minute

// Backoff retries up to Attempts total attempts, doubling the wait from Base
// and capping it at Max (one minute when Max is zero).
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
	// Retryable filters errors worth retrying. Nil uses IsTransient.
	Retryable func(error) bool
}

func (b Backoff) Next(attempt int, err error) (time.Duration, bool) {
	if attempt >= b.Attempts {
		return 0, false
	}
	retryable := b.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	if !retryable(err) {
		return 0, false
	}
	limit := b.Max
	if limit <= 0 {
		limit = maxBackoff
	}
	wait := b.Base
	for i := 1; i < attempt && wait < limit; i++ {
		wait *= 2
	}
	if wait > limit {
		wait = limit
	}
	return wait, true
}

// IsTransient reports whether err looks temporary: a server-side failure,
// rate limiting, or a transport error. Client errors such as 404 are not.
func IsTransient(err error) bool {
	return apperrors.IsRetryable(err) || apperrors.HTTPStatus(err) >= 500
}
