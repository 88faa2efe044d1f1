package decks

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/queue"
)

type recordingQueue struct {
	messages []queue.Message
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	q.messages = append(q.messages, msg)
	return nil
}

func newTestRouter(repo Repo, store *fakeObjectStore, q queue.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("ownerId", "owner-1")
		c.Next()
	})
	handler := NewHandler(&Service{Repo: repo, Store: store, Queue: q})
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func multipartPDF(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAcceptsAndEnqueues(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeObjectStore()
	q := &recordingQueue{}
	router := newTestRouter(repo, store, q)

	body, contentType := multipartPDF(t, "pitch.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != string(StatusUploaded) {
		t.Fatalf("expected uploaded status, got %q", created.Status)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(q.messages))
	}
	if q.messages[0].DeckID != created.ID {
		t.Fatalf("queued deck ID %q does not match created %q", q.messages[0].DeckID, created.ID)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	router := newTestRouter(NewMemoryRepo(), newFakeObjectStore(), &recordingQueue{})

	body, contentType := multipartPDF(t, "deck.docx", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStatusReflectsFailure(t *testing.T) {
	repo := NewMemoryRepo()
	msg := "UpstreamUnavailable: http status 503"
	now := time.Now().UTC()
	_ = repo.Create(context.Background(), Deck{
		ID:        "deck-1",
		OwnerID:   "owner-1",
		Status:    StatusFailed,
		Error:     &msg,
		CreatedAt: now,
		UpdatedAt: now,
	})
	router := newTestRouter(repo, newFakeObjectStore(), &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1/status", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != string(StatusFailed) || got.Error == nil {
		t.Fatalf("expected failed status with error, got %+v", got)
	}
}

func TestStatusHidesOtherOwnersDecks(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	_ = repo.Create(context.Background(), Deck{
		ID:        "deck-1",
		OwnerID:   "someone-else",
		Status:    StatusReady,
		CreatedAt: now,
		UpdatedAt: now,
	})
	router := newTestRouter(repo, newFakeObjectStore(), &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1/status", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAnalysisConflictUntilReady(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	_ = repo.Create(context.Background(), Deck{
		ID:        "deck-1",
		OwnerID:   "owner-1",
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	})
	router := newTestRouter(repo, newFakeObjectStore(), &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1/analysis", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 while processing, got %d", resp.Code)
	}
}

func TestAnalysisReturnsLatestResult(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	_ = repo.Create(context.Background(), Deck{
		ID:        "deck-1",
		OwnerID:   "owner-1",
		Status:    StatusReady,
		CreatedAt: now,
		UpdatedAt: now,
	})
	_ = repo.AppendResult(context.Background(), "deck-1", json.RawMessage(`{"one_liner":"first"}`))
	_ = repo.AppendResult(context.Background(), "deck-1", json.RawMessage(`{"one_liner":"second"}`))
	router := newTestRouter(repo, newFakeObjectStore(), &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1/analysis", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got struct {
		DeckID string `json:"deckId"`
		Result struct {
			OneLiner string `json:"one_liner"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Result.OneLiner != "second" {
		t.Fatalf("expected latest result, got %q", got.Result.OneLiner)
	}
}

func TestReprocessOnlyFailedDecks(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	msg := "MalformedResponse: not json"
	_ = repo.Create(context.Background(), Deck{
		ID:        "failed-deck",
		OwnerID:   "owner-1",
		Status:    StatusFailed,
		Error:     &msg,
		CreatedAt: now,
		UpdatedAt: now,
	})
	_ = repo.Create(context.Background(), Deck{
		ID:        "ready-deck",
		OwnerID:   "owner-1",
		Status:    StatusReady,
		CreatedAt: now,
		UpdatedAt: now,
	})
	q := &recordingQueue{}
	router := newTestRouter(repo, newFakeObjectStore(), q)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks/failed-deck/reprocess", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for failed deck, got %d", resp.Code)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected reprocess to enqueue, got %d messages", len(q.messages))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/decks/ready-deck/reprocess", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for ready deck, got %d", resp.Code)
	}
}
