package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// withTimeout bounds ctx by d. A non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// stageError wraps err with the stage kind, adding ErrTimeout when a deadline fired.
func stageError(kind error, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %s: %w", kind, domain.ErrTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, stage, err)
}
