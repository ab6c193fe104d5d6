package retile

import (
	"context"
	"fmt"
)

// finalize implements Phase 5: either drop the table if generation was
// cancelled with cleanup requested, or persist the final Contents
// timestamp and return the committed tile count.
func (e *Engine) finalize(ctx context.Context, s *state) (int, error) {
	if !s.req.Progress.IsActive() && s.req.Progress.CleanupOnCancel() {
		e.container.DeleteTableQuietly(ctx, s.req.Table)
		return 0, nil
	}

	if err := e.container.TouchContentsLastChange(ctx, s.req.Table, nowRFC3339()); err != nil {
		e.container.DeleteTableQuietly(ctx, s.req.Table)
		return 0, fmt.Errorf("retile: finalize contents timestamp: %w", err)
	}

	return s.committedCount, nil
}
