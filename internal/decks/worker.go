package decks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/metrics"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/object"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
)

// Skip reasons reported on Outcome.
const (
	SkipAlreadyReady        = "already_ready"
	SkipConcurrentlyClaimed = "concurrently_claimed"
)

// Outcome is the result of one Execute call. Every branch of the state
// machine maps to exactly one tagged outcome so callers can switch on it
// instead of unwrapping errors.
type Outcome struct {
	// Kind is one of "completed", "skipped", "not_found", "failed".
	Kind string `json:"kind"`
	// SkipReason is set only for skipped outcomes.
	SkipReason string `json:"skipReason,omitempty"`
	// ErrorKind and ErrorMessage are set only for failed outcomes.
	ErrorKind    string `json:"errorKind,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	// Err carries the underlying failure for the queue runtime; it is nil
	// for every non-failed outcome.
	Err error `json:"-"`
}

const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

// OK reports whether the delivery should be acknowledged as handled.
// NotFound is OK: redelivering an unknown deck ID can never succeed.
func (o Outcome) OK() bool {
	return o.Kind != OutcomeFailed
}

func completedOutcome() Outcome {
	return Outcome{Kind: OutcomeCompleted}
}

func skippedOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, SkipReason: reason}
}

func notFoundOutcome() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

func failedOutcome(err error) Outcome {
	return Outcome{
		Kind:         OutcomeFailed,
		ErrorKind:    extraction.Kind(err),
		ErrorMessage: err.Error(),
		Err:          err,
	}
}

// Worker runs the deck processing state machine.
type Worker struct {
	Repo      Repo
	Store     object.ObjectStore
	Extractor extraction.Extractor
}

// Execute processes one queue delivery for a deck.
//
// ready decks are skipped without touching the extractor, so redelivery of
// a finished deck is a no-op. The uploaded|failed -> processing transition
// is a conditional update, so when two deliveries race only one proceeds and
// the loser reports a concurrently_claimed skip.
func (w *Worker) Execute(ctx context.Context, deckID, uploadPath string) Outcome {
	started := time.Now()
	metrics.IncDeckJobsReceived()

	deck, err := w.Repo.GetByID(ctx, deckID)
	if errors.Is(err, ErrNotFound) {
		telemetry.Warn("deck_job_not_found", map[string]any{"deck_id": deckID})
		metrics.IncDeckJobsSkipped()
		return notFoundOutcome()
	}
	if err != nil {
		metrics.IncDeckJobsFailed()
		return failedOutcome(fmt.Errorf("fetch deck: %w", err))
	}

	if deck.Status == StatusReady {
		telemetry.Info("deck_job_skipped", map[string]any{
			"deck_id": deckID,
			"reason":  SkipAlreadyReady,
		})
		metrics.IncDeckJobsSkipped()
		return skippedOutcome(SkipAlreadyReady)
	}

	claimed, err := w.Repo.UpdateStatusFrom(ctx, deckID, []Status{StatusUploaded, StatusFailed}, StatusProcessing, nil)
	if err != nil {
		return w.fail(ctx, deckID, fmt.Errorf("claim deck: %w", err))
	}
	if !claimed {
		telemetry.Info("deck_job_skipped", map[string]any{
			"deck_id": deckID,
			"reason":  SkipConcurrentlyClaimed,
		})
		metrics.IncDeckJobsSkipped()
		return skippedOutcome(SkipConcurrentlyClaimed)
	}

	path := uploadPath
	if path == "" {
		path = deck.UploadPath
	}

	documentBytes, err := w.readDocument(ctx, path)
	if err != nil {
		return w.fail(ctx, deckID, err)
	}

	result, err := w.Extractor.Extract(ctx, documentBytes)
	if err != nil {
		return w.fail(ctx, deckID, err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return w.fail(ctx, deckID, fmt.Errorf("encode result: %w", err))
	}

	// Result first, then the status flip. A crash between the two leaves an
	// analysis row on a non-ready deck, which a redelivery repairs; the
	// current analysis is always max-by-createdAt, so the duplicate row from
	// that second run is harmless.
	if err := w.Repo.AppendResult(ctx, deckID, resultJSON); err != nil {
		return w.fail(ctx, deckID, fmt.Errorf("persist result: %w", err))
	}
	ok, err := w.Repo.UpdateStatusFrom(ctx, deckID, []Status{StatusProcessing}, StatusReady, nil)
	if err != nil {
		return w.fail(ctx, deckID, fmt.Errorf("mark ready: %w", err))
	}
	if !ok {
		return w.fail(ctx, deckID, fmt.Errorf("mark ready: deck left processing during extraction"))
	}

	elapsed := time.Since(started)
	telemetry.Info("deck_job_completed", map[string]any{
		"deck_id":     deckID,
		"duration_ms": elapsed.Milliseconds(),
		"pages_count": result.Meta.PagesCount,
	})
	metrics.IncDeckJobsCompleted()
	metrics.ObserveDeckProcessingMs(float64(elapsed.Milliseconds()))
	return completedOutcome()
}

func (w *Worker) readDocument(ctx context.Context, uploadPath string) ([]byte, error) {
	reader, err := w.Store.Open(ctx, uploadPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// fail records a bounded failure message on the deck and surfaces the
// original error. The record-failure write is best effort: if it also
// fails, the error is still visible through the outcome, just not in
// stored state.
func (w *Worker) fail(ctx context.Context, deckID string, cause error) Outcome {
	msg := captureError(cause)
	wrote, err := w.Repo.UpdateStatusFrom(ctx, deckID,
		[]Status{StatusUploaded, StatusProcessing, StatusFailed}, StatusFailed, &msg)
	if err != nil || !wrote {
		telemetry.Error("deck_job_failure_unrecorded", map[string]any{
			"deck_id": deckID,
			"cause":   cause.Error(),
		})
	} else {
		telemetry.Error("deck_job_failed", map[string]any{
			"deck_id": deckID,
			"kind":    extraction.Kind(cause),
			"error":   cause.Error(),
		})
	}
	metrics.IncDeckJobsFailed()
	return failedOutcome(cause)
}
