package decks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo stores decks in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	decks    map[string]Deck
	analyses map[string][]DeckAnalysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		decks:    make(map[string]Deck),
		analyses: make(map[string][]DeckAnalysis),
	}
}

// Create stores the deck.
func (r *MemoryRepo) Create(ctx context.Context, deck Deck) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[deck.ID] = deck
	return nil
}

// GetByID returns a deck by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, deckID string) (Deck, error) {
	if err := ctx.Err(); err != nil {
		return Deck{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return Deck{}, ErrNotFound
	}
	return deck, nil
}

// GetByIDForOwner returns a deck only when it belongs to the owner.
func (r *MemoryRepo) GetByIDForOwner(ctx context.Context, deckID, ownerID string) (Deck, error) {
	deck, err := r.GetByID(ctx, deckID)
	if err != nil {
		return Deck{}, err
	}
	if deck.OwnerID != ownerID {
		return Deck{}, ErrNotFound
	}
	return deck, nil
}

// UpdateStatusFrom conditionally moves a deck to a new status.
func (r *MemoryRepo) UpdateStatusFrom(ctx context.Context, deckID string, from []Status, to Status, errMsg *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if deck.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	deck.Status = to
	deck.Error = errMsg
	deck.UpdatedAt = time.Now().UTC()
	r.decks[deckID] = deck
	return true, nil
}

// AppendResult stores a new analysis row for the deck.
func (r *MemoryRepo) AppendResult(ctx context.Context, deckID string, resultJSON json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[deckID] = append(r.analyses[deckID], DeckAnalysis{
		ID:         uuid.NewString(),
		DeckID:     deckID,
		ResultJSON: append(json.RawMessage(nil), resultJSON...),
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// LatestResult returns the newest analysis for the deck.
func (r *MemoryRepo) LatestResult(ctx context.Context, deckID string) (DeckAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return DeckAnalysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.analyses[deckID]
	if len(rows) == 0 {
		return DeckAnalysis{}, ErrNoAnalysis
	}
	latest := rows[0]
	for _, row := range rows[1:] {
		// Rows are appended in order, so ties resolve to the newest insert.
		if !row.CreatedAt.Before(latest.CreatedAt) {
			latest = row
		}
	}
	return latest, nil
}

// ListByOwner returns the owner's decks, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Deck
	for _, deck := range r.decks {
		if deck.OwnerID == ownerID {
			out = append(out, deck)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Deck{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListStaleProcessing returns decks stuck in processing before the cutoff.
func (r *MemoryRepo) ListStaleProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Deck
	for _, deck := range r.decks {
		if deck.Status == StatusProcessing && deck.UpdatedAt.Before(updatedBefore) {
			out = append(out, deck)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
