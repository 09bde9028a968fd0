package immich

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxRetries is how often a retryable call is repeated.
const DefaultMaxRetries = 3

var retryBase = 500 * time.Millisecond

// withRetry runs f, repeating it while it fails with a RetryableError.
func (c *Client) withRetry(ctx context.Context, op string, f func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(10*time.Second, retry.NewExponential(retryBase)))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := f(ctx)
		var retryable *RetryableError
		if errors.As(err, &retryable) {
			log.WithError(err).Debugf("%s: attempt %d failed", op, attempt)
			return retry.RetryableError(err)
		}
		return err
	})
}
