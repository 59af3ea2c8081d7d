package docs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ordrebog/ordrebog/internal/common"
	"github.com/ordrebog/ordrebog/internal/logging"
)

// Retrying wraps a Store with bounded exponential-backoff retries for
// transient failures. ErrNotFound passes through untouched; exhausted
// retries surface as common.ErrStorageUnavailable so callers fail the
// whole operation atomically instead of hanging.
type Retrying struct {
	next     Store
	attempts uint64
	base     time.Duration
	logger   logging.Logger
}

// NewRetrying wraps next with the given retry budget. attempts counts
// retries after the first try; base is the initial backoff interval.
func NewRetrying(next Store, attempts uint64, base time.Duration, logger logging.Logger) *Retrying {
	return &Retrying{
		next:     next,
		attempts: attempts,
		base:     base,
		logger:   logger.With("module", "docs_retry"),
	}
}

func (r *Retrying) backoff() retry.Backoff {
	return retry.WithMaxRetries(r.attempts, retry.NewExponential(r.base))
}

func (r *Retrying) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		var loadErr error
		data, loadErr = r.next.Load(ctx, key)
		if loadErr == nil || errors.Is(loadErr, ErrNotFound) {
			return loadErr
		}
		r.logger.Warn(ctx, "load failed, retrying", "key", key, "error", loadErr)
		return retry.RetryableError(loadErr)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: load %s: %w", common.ErrStorageUnavailable, key, err)
	}
	return data, err
}

func (r *Retrying) Save(ctx context.Context, key string, data []byte) error {
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		if saveErr := r.next.Save(ctx, key, data); saveErr != nil {
			r.logger.Warn(ctx, "save failed, retrying", "key", key, "error", saveErr)
			return retry.RetryableError(saveErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save %s: %w", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (r *Retrying) Close() error {
	return r.next.Close()
}
