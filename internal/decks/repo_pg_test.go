package decks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	deck := Deck{
		ID:           "deck-1",
		OwnerID:      "owner-1",
		OriginalName: "pitch.pdf",
		UploadPath:   "owner-1/pitch.pdf",
		Status:       StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO decks").
		WithArgs(
			deck.ID,
			deck.OwnerID,
			deck.OriginalName,
			deck.UploadPath,
			"uploaded",
			nil,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), deck); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusFromClaims(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE decks").
		WithArgs("deck-1", "processing", nil, sqlmock.AnyArg(), "uploaded", "failed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatusFrom(context.Background(), "deck-1",
		[]Status{StatusUploaded, StatusFailed}, StatusProcessing, nil)
	if err != nil {
		t.Fatalf("UpdateStatusFrom: %v", err)
	}
	if !ok {
		t.Fatalf("expected claim to succeed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusFromRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE decks").
		WithArgs("deck-1", "processing", nil, sqlmock.AnyArg(), "uploaded", "failed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatusFrom(context.Background(), "deck-1",
		[]Status{StatusUploaded, StatusFailed}, StatusProcessing, nil)
	if err != nil {
		t.Fatalf("UpdateStatusFrom: %v", err)
	}
	if ok {
		t.Fatalf("expected claim to be rejected when no row matches")
	}
}

func TestPGRepoUpdateStatusFromRequiresExpected(t *testing.T) {
	repo := &PGRepo{}
	if _, err := repo.UpdateStatusFrom(context.Background(), "deck-1", nil, StatusProcessing, nil); err == nil {
		t.Fatalf("expected error for empty expected statuses")
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM decks").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "original_name", "upload_path", "status", "error", "created_at", "updated_at",
		}))

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestPGRepoGetByIDScansError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM decks").
		WithArgs("deck-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "original_name", "upload_path", "status", "error", "created_at", "updated_at",
		}).AddRow("deck-1", "owner-1", "pitch.pdf", "owner-1/pitch.pdf", "failed", "MalformedResponse: not json", now, now))

	deck, err := repo.GetByID(context.Background(), "deck-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if deck.Status != StatusFailed {
		t.Fatalf("unexpected status: %q", deck.Status)
	}
	if deck.Error == nil || *deck.Error != "MalformedResponse: not json" {
		t.Fatalf("unexpected error field: %v", deck.Error)
	}
}

func TestPGRepoLatestResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	payload := `{"one_liner":"latest"}`
	mock.ExpectQuery("SELECT (.+) FROM deck_analyses").
		WithArgs("deck-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "deck_id", "result_json", "created_at"}).
			AddRow("analysis-2", "deck-1", []byte(payload), now))

	analysis, err := repo.LatestResult(context.Background(), "deck-1")
	if err != nil {
		t.Fatalf("LatestResult: %v", err)
	}
	if string(analysis.ResultJSON) != payload {
		t.Fatalf("unexpected payload: %s", analysis.ResultJSON)
	}
}

func TestPGRepoLatestResultMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM deck_analyses").
		WithArgs("deck-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "deck_id", "result_json", "created_at"}))

	_, err = repo.LatestResult(context.Background(), "deck-1")
	if !errors.Is(err, ErrNoAnalysis) {
		t.Fatalf("expected ErrNoAnalysis, got: %v", err)
	}
}

func TestPGRepoAppendResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("INSERT INTO deck_analyses").
		WithArgs(sqlmock.AnyArg(), "deck-1", []byte(`{"one_liner":"x"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AppendResult(context.Background(), "deck-1", json.RawMessage(`{"one_liner":"x"}`)); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
