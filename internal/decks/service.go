package decks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/queue"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/object"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
)

// Service coordinates uploads, reads, and queue dispatch for decks.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Queue queue.Client
}

// Upload persists the document, records the deck as uploaded, and enqueues
// it for processing.
func (s *Service) Upload(ctx context.Context, ownerID, originalName, requestID string, file io.Reader) (Deck, error) {
	if !strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		return Deck{}, ErrUnsupportedFile
	}
	if s.Queue == nil {
		return Deck{}, ErrQueueNotConfigured
	}

	storageKey, sizeBytes, mimeType, err := s.Store.Save(ctx, ownerID, originalName, file)
	if err != nil {
		return Deck{}, fmt.Errorf("save upload: %w", err)
	}
	if mimeType != "" && mimeType != "application/pdf" {
		return Deck{}, ErrUnsupportedFile
	}

	now := time.Now().UTC()
	deck := Deck{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		OriginalName: originalName,
		UploadPath:   storageKey,
		Status:       StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, deck); err != nil {
		return Deck{}, fmt.Errorf("create deck: %w", err)
	}

	err = s.Queue.Send(ctx, queue.Message{
		DeckID:     deck.ID,
		UploadPath: deck.UploadPath,
		RequestID:  requestID,
		EnqueuedAt: now.Format(time.RFC3339),
		Version:    1,
	})
	if err != nil {
		return Deck{}, fmt.Errorf("enqueue deck: %w", err)
	}

	telemetry.Info("deck_uploaded", map[string]any{
		"deck_id":    deck.ID,
		"owner_id":   ownerID,
		"size_bytes": sizeBytes,
		"request_id": requestID,
	})
	return deck, nil
}

// Reprocess re-enqueues a deck whose last run failed. ready decks are
// rejected so a finished analysis is never silently redone.
func (s *Service) Reprocess(ctx context.Context, ownerID, deckID, requestID string) (Deck, error) {
	if s.Queue == nil {
		return Deck{}, ErrQueueNotConfigured
	}
	deck, err := s.Repo.GetByIDForOwner(ctx, deckID, ownerID)
	if err != nil {
		return Deck{}, err
	}
	if deck.Status != StatusFailed {
		return deck, fmt.Errorf("deck is %s, only failed decks can be reprocessed", deck.Status)
	}
	err = s.Queue.Send(ctx, queue.Message{
		DeckID:     deck.ID,
		UploadPath: deck.UploadPath,
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
	if err != nil {
		return Deck{}, fmt.Errorf("enqueue deck: %w", err)
	}
	return deck, nil
}

// Get returns the owner's deck.
func (s *Service) Get(ctx context.Context, ownerID, deckID string) (Deck, error) {
	return s.Repo.GetByIDForOwner(ctx, deckID, ownerID)
}

// List returns the owner's decks, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Deck, error) {
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Analysis returns the deck and its latest analysis. The caller is expected
// to reject reads until the deck is ready.
func (s *Service) Analysis(ctx context.Context, ownerID, deckID string) (Deck, DeckAnalysis, error) {
	deck, err := s.Repo.GetByIDForOwner(ctx, deckID, ownerID)
	if err != nil {
		return Deck{}, DeckAnalysis{}, err
	}
	if deck.Status != StatusReady {
		return deck, DeckAnalysis{}, nil
	}
	analysis, err := s.Repo.LatestResult(ctx, deckID)
	if err != nil {
		return deck, DeckAnalysis{}, err
	}
	return deck, analysis, nil
}
