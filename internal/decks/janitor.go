package decks

import (
	"context"
	"time"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/metrics"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
)

const staleSweepBatch = 50

// Janitor reaps decks stuck in processing. A worker that is forcibly
// terminated mid-run leaves its deck in processing forever; the janitor
// treats updated_at as a lease and marks expired decks failed so they become
// reprocessable.
type Janitor struct {
	Repo  Repo
	Lease time.Duration
}

// Sweep marks every expired-lease deck failed and returns how many it moved.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	lease := j.Lease
	if lease <= 0 {
		lease = 30 * time.Minute
	}
	cutoff := time.Now().UTC().Add(-lease)

	stale, err := j.Repo.ListStaleProcessing(ctx, cutoff, staleSweepBatch)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, deck := range stale {
		msg := "Internal: processing lease expired after " + lease.String()
		// Conditional on processing: a worker that finished between the
		// listing and this write keeps its result.
		moved, err := j.Repo.UpdateStatusFrom(ctx, deck.ID, []Status{StatusProcessing}, StatusFailed, &msg)
		if err != nil {
			telemetry.Error("deck_sweep_error", map[string]any{
				"deck_id": deck.ID,
				"error":   err.Error(),
			})
			continue
		}
		if moved {
			swept++
			metrics.IncStaleDecksSwept()
			telemetry.Warn("deck_lease_expired", map[string]any{
				"deck_id":      deck.ID,
				"last_updated": deck.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
	}
	return swept, nil
}

// Run sweeps on the given interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				telemetry.Error("deck_sweep_failed", map[string]any{"error": err.Error()})
			}
		}
	}
}
