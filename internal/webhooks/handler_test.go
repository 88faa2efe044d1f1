package webhooks

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/users"
)

func newWebhookRouter(repo users.Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(testSecret, repo).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postEvent(t *testing.T, router *gin.Engine, payload []byte, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/account", bytes.NewReader(payload))
	if signed {
		now := time.Now()
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
		req.Header.Set("svix-signature", sign(t, testSecret, "msg_1", now.Unix(), payload))
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAccountWebhookCreatesUser(t *testing.T) {
	repo := users.NewMemoryRepo()
	router := newWebhookRouter(repo)

	payload := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_abc",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"primary_email_address_id": "em_1",
			"email_addresses": [{"id": "em_1", "email_address": "ada@example.com"}]
		}
	}`)

	resp := postEvent(t, router, payload, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	user, err := repo.GetByExternalID(context.Background(), "user_abc")
	if err != nil {
		t.Fatalf("expected user synced: %v", err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada Lovelace" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAccountWebhookDeletesUser(t *testing.T) {
	repo := users.NewMemoryRepo()
	_ = repo.Upsert(context.Background(), users.User{ID: "u1", ExternalID: "user_abc", Email: "a@b.c"})
	router := newWebhookRouter(repo)

	resp := postEvent(t, router, []byte(`{"type":"user.deleted","data":{"id":"user_abc"}}`), true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if _, err := repo.GetByExternalID(context.Background(), "user_abc"); err == nil {
		t.Fatalf("expected user removed")
	}
}

func TestAccountWebhookRejectsUnsigned(t *testing.T) {
	repo := users.NewMemoryRepo()
	router := newWebhookRouter(repo)

	resp := postEvent(t, router, []byte(`{"type":"user.created","data":{"id":"user_abc"}}`), false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if _, err := repo.GetByExternalID(context.Background(), "user_abc"); err == nil {
		t.Fatalf("unsigned event must not create a user")
	}
}

func TestAccountWebhookIgnoresUnknownTypes(t *testing.T) {
	router := newWebhookRouter(users.NewMemoryRepo())

	resp := postEvent(t, router, []byte(`{"type":"session.created","data":{"id":"sess_1"}}`), true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected unknown types to be acked, got %d", resp.Code)
	}
}
