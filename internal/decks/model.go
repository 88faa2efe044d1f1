package decks

import (
	"encoding/json"
	"time"
)

// Status values a deck moves through. uploaded is initial and never
// re-entered; ready is terminal; failed is reprocessable.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Deck represents one uploaded pitch deck and its processing state.
type Deck struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	OriginalName string    `json:"originalName"`
	UploadPath   string    `json:"uploadPath"`
	Status       Status    `json:"status"`
	Error        *string   `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DeckAnalysis is one extraction result for a deck. Rows are append-only;
// the current analysis is the newest by CreatedAt.
type DeckAnalysis struct {
	ID         string          `json:"id"`
	DeckID     string          `json:"deckId"`
	ResultJSON json.RawMessage `json:"resultJson"`
	CreatedAt  time.Time       `json:"createdAt"`
}
