package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/respond"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/users"
)

const maxWebhookBody = 1 << 20

// Handler processes account-provider webhook events.
type Handler struct {
	Secret string
	Users  users.Repo
}

// NewHandler constructs a Handler.
func NewHandler(secret string, repo users.Repo) *Handler {
	return &Handler{Secret: secret, Users: repo}
}

// RegisterRoutes attaches webhook routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/account", h.account)
}

type accountEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		PrimaryEmailAddressID string `json:"primary_email_address_id"`
	} `json:"data"`
}

func (h *Handler) account(c *gin.Context) {
	if h.Secret == "" {
		respond.Error(c, http.StatusServiceUnavailable, "webhook_disabled", "webhook secret not configured", nil)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read body", nil)
		return
	}

	err = VerifySignature(
		h.Secret,
		c.GetHeader("svix-id"),
		c.GetHeader("svix-timestamp"),
		c.GetHeader("svix-signature"),
		payload,
	)
	if err != nil {
		telemetry.Warn("webhook_rejected", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusUnauthorized, "invalid_signature", "webhook verification failed", nil)
		return
	}

	var event accountEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid event payload", nil)
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		if err := h.upsertUser(c, event); err != nil {
			respond.Error(c, http.StatusInternalServerError, "webhook_failed", "failed to sync user", nil)
			return
		}
	case "user.deleted":
		if err := h.Users.DeleteByExternalID(c.Request.Context(), event.Data.ID); err != nil {
			respond.Error(c, http.StatusInternalServerError, "webhook_failed", "failed to remove user", nil)
			return
		}
	default:
		telemetry.Info("webhook_ignored", map[string]any{"type": event.Type})
	}

	respond.OK(c, gin.H{"received": true})
}

func (h *Handler) upsertUser(c *gin.Context, event accountEvent) error {
	if event.Data.ID == "" {
		return errors.New("event missing user id")
	}

	email := ""
	for _, addr := range event.Data.EmailAddresses {
		if addr.ID == event.Data.PrimaryEmailAddressID {
			email = addr.EmailAddress
			break
		}
	}
	if email == "" && len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}

	name := strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName)

	return h.Users.Upsert(c.Request.Context(), users.User{
		ID:         uuid.NewString(),
		ExternalID: event.Data.ID,
		Email:      email,
		Name:       name,
	})
}
