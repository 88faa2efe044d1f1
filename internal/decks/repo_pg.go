package decks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new deck.
func (r *PGRepo) Create(ctx context.Context, deck Deck) error {
	const query = `
INSERT INTO decks (id, owner_id, original_name, upload_path, status, error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		deck.ID,
		deck.OwnerID,
		deck.OriginalName,
		deck.UploadPath,
		string(deck.Status),
		deck.Error,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	return err
}

// GetByID returns a deck by ID.
func (r *PGRepo) GetByID(ctx context.Context, deckID string) (Deck, error) {
	const query = `
SELECT id, owner_id, original_name, upload_path, status, error, created_at, updated_at
FROM decks
WHERE id = $1
LIMIT 1`
	return scanDeck(r.DB.QueryRowContext(ctx, query, deckID))
}

// GetByIDForOwner returns a deck only when it belongs to the owner.
func (r *PGRepo) GetByIDForOwner(ctx context.Context, deckID, ownerID string) (Deck, error) {
	const query = `
SELECT id, owner_id, original_name, upload_path, status, error, created_at, updated_at
FROM decks
WHERE id = $1 AND owner_id = $2
LIMIT 1`
	return scanDeck(r.DB.QueryRowContext(ctx, query, deckID, ownerID))
}

// UpdateStatusFrom conditionally moves a deck to a new status. The update
// only applies when the stored status is one of from; the boolean reports
// whether a row was written.
func (r *PGRepo) UpdateStatusFrom(ctx context.Context, deckID string, from []Status, to Status, errMsg *string) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("update requires at least one expected status")
	}

	placeholders := make([]string, 0, len(from))
	args := []any{deckID, string(to), errMsg, time.Now().UTC()}
	for i, s := range from {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+5))
		args = append(args, string(s))
	}

	query := fmt.Sprintf(`
UPDATE decks
SET status = $2, error = $3, updated_at = $4
WHERE id = $1 AND status IN (%s)`, strings.Join(placeholders, ", "))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// AppendResult inserts a new analysis row for the deck.
func (r *PGRepo) AppendResult(ctx context.Context, deckID string, resultJSON json.RawMessage) error {
	const query = `
INSERT INTO deck_analyses (id, deck_id, result_json, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, uuid.NewString(), deckID, []byte(resultJSON), time.Now().UTC())
	return err
}

// LatestResult returns the newest analysis row for the deck.
func (r *PGRepo) LatestResult(ctx context.Context, deckID string) (DeckAnalysis, error) {
	const query = `
SELECT id, deck_id, result_json, created_at
FROM deck_analyses
WHERE deck_id = $1
ORDER BY created_at DESC
LIMIT 1`
	var a DeckAnalysis
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, deckID).Scan(&a.ID, &a.DeckID, &raw, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DeckAnalysis{}, ErrNoAnalysis
	}
	if err != nil {
		return DeckAnalysis{}, err
	}
	a.ResultJSON = json.RawMessage(raw)
	return a, nil
}

// ListByOwner returns the owner's decks, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Deck, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, owner_id, original_name, upload_path, status, error, created_at, updated_at
FROM decks
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Deck, 0, limit)
	for rows.Next() {
		deck, err := scanDeckRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, deck)
	}
	return out, rows.Err()
}

// ListStaleProcessing returns decks stuck in processing whose last update
// predates the cutoff. Used by the janitor to reap expired leases.
func (r *PGRepo) ListStaleProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]Deck, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, owner_id, original_name, upload_path, status, error, created_at, updated_at
FROM decks
WHERE status = 'processing' AND updated_at < $1
ORDER BY updated_at ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, updatedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deck
	for rows.Next() {
		deck, err := scanDeckRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, deck)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (Deck, error) {
	deck, err := scanDeckRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Deck{}, ErrNotFound
	}
	return deck, err
}

func scanDeckRows(row rowScanner) (Deck, error) {
	var d Deck
	var status string
	var errMsg sql.NullString
	if err := row.Scan(&d.ID, &d.OwnerID, &d.OriginalName, &d.UploadPath, &status, &errMsg, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return Deck{}, err
	}
	d.Status = Status(status)
	if errMsg.Valid {
		msg := errMsg.String
		d.Error = &msg
	}
	return d, nil
}

var _ Repo = (*PGRepo)(nil)
