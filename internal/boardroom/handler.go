package boardroom

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/decks"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/auth"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/middleware"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/respond"
)

const defaultVoice = "Puck"

// Handler creates boardroom sessions: a room name plus signed tokens for
// the founder and the persona agent.
type Handler struct {
	Decks decks.Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo decks.Repo) *Handler {
	return &Handler{Decks: repo}
}

// RegisterRoutes attaches boardroom routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/boardroom/session", h.createSession)
}

type createSessionRequest struct {
	Persona  string `json:"persona"`
	DeckID   string `json:"deckId"`
	RoomName string `json:"roomName"`
	Voice    string `json:"voice"`
}

type sessionResponse struct {
	RoomName       string `json:"roomName"`
	UserToken      string `json:"userToken"`
	AgentToken     string `json:"agentToken"`
	Persona        string `json:"persona"`
	HasDeckContext bool   `json:"hasDeckContext"`
	Instructions   string `json:"instructions"`
}

func (h *Handler) createSession(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	persona := strings.ToLower(strings.TrimSpace(req.Persona))
	if !KnownPersona(persona) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown persona", nil)
		return
	}

	var analysis *extraction.Result
	if req.DeckID != "" {
		deck, err := h.Decks.GetByIDForOwner(c.Request.Context(), req.DeckID, ownerID)
		if err != nil {
			if errors.Is(err, decks.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "session_failed", "failed to read deck", nil)
			return
		}
		if deck.Status == decks.StatusReady {
			latest, err := h.Decks.LatestResult(c.Request.Context(), deck.ID)
			if err == nil {
				var parsed extraction.Result
				if jsonErr := json.Unmarshal(latest.ResultJSON, &parsed); jsonErr == nil {
					parsed.ApplyDefaults()
					analysis = &parsed
				}
			}
		}
	}

	instructions := BuildInstructions(persona, analysis)

	roomName := strings.TrimSpace(req.RoomName)
	if roomName == "" {
		if req.DeckID != "" {
			roomName = "boardroom-" + req.DeckID
		} else {
			roomName = "boardroom-persona-" + persona
		}
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoice
	}

	userToken, err := auth.SignJWT(auth.Claims{
		Sub:  ownerID,
		Name: "Founder",
		Room: roomName,
		Role: "participant",
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "session_failed", "failed to mint token", nil)
		return
	}

	agentToken, err := auth.SignJWT(auth.Claims{
		Sub:  "agent-" + persona,
		Name: titleCase(persona) + " Shark",
		Room: roomName,
		Role: "agent",
		Metadata: map[string]any{
			"persona":      persona,
			"instructions": instructions,
			"voice":        voice,
		},
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "session_failed", "failed to mint token", nil)
		return
	}

	respond.OK(c, sessionResponse{
		RoomName:       roomName,
		UserToken:      userToken,
		AgentToken:     agentToken,
		Persona:        persona,
		HasDeckContext: analysis != nil,
		Instructions:   instructions,
	})
}
