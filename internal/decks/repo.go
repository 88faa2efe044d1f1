package decks

import (
	"context"
	"encoding/json"
	"time"
)

// Repo defines persistence operations for decks and their analyses.
//
// UpdateStatusFrom is the concurrency primitive: it only writes when the
// deck's current status is one of from, and reports whether the write
// happened. Workers use it to claim a deck so overlapping deliveries of the
// same deck resolve to exactly one processor.
type Repo interface {
	Create(ctx context.Context, deck Deck) error
	GetByID(ctx context.Context, deckID string) (Deck, error)
	GetByIDForOwner(ctx context.Context, deckID, ownerID string) (Deck, error)
	UpdateStatusFrom(ctx context.Context, deckID string, from []Status, to Status, errMsg *string) (bool, error)
	AppendResult(ctx context.Context, deckID string, resultJSON json.RawMessage) error
	LatestResult(ctx context.Context, deckID string) (DeckAnalysis, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Deck, error)
	ListStaleProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]Deck, error)
}
