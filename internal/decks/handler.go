package decks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/middleware"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/respond"
)

const maxUploadBody = 25 << 20 // leaves headroom over the 20MB document limit

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches deck routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/decks", h.upload)
	rg.GET("/decks", h.list)
	rg.GET("/decks/:id/status", h.status)
	rg.GET("/decks/:id/analysis", h.analysis)
	rg.POST("/decks/:id/reprocess", h.reprocess)
}

type deckResponse struct {
	ID           string  `json:"id"`
	OriginalName string  `json:"originalName"`
	Status       string  `json:"status"`
	Error        *string `json:"error,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func toResponse(deck Deck) deckResponse {
	return deckResponse{
		ID:           deck.ID,
		OriginalName: deck.OriginalName,
		Status:       string(deck.Status),
		Error:        deck.Error,
		CreatedAt:    deck.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    deck.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	deck, err := h.Svc.Upload(c.Request.Context(), ownerID, fileHeader.Filename, middleware.RequestIDFromContext(c), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFile):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "upload_failed", "failed to upload deck", nil)
		}
		return
	}

	respond.Accepted(c, toResponse(deck))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Svc.List(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "list_failed", "failed to list decks", nil)
		return
	}

	out := make([]deckResponse, 0, len(items))
	for _, deck := range items {
		out = append(out, toResponse(deck))
	}
	respond.OK(c, gin.H{"items": out})
}

func (h *Handler) status(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	deck, err := h.Svc.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "status_failed", "failed to read deck", nil)
		return
	}

	respond.OK(c, toResponse(deck))
}

func (h *Handler) analysis(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	deck, analysis, err := h.Svc.Analysis(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrNoAnalysis):
			respond.Error(c, http.StatusConflict, "analysis_pending", "deck has no analysis yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "analysis_failed", "failed to read analysis", nil)
		}
		return
	}
	if deck.Status != StatusReady {
		respond.Error(c, http.StatusConflict, "analysis_pending",
			"analysis is not ready, current status: "+string(deck.Status), gin.H{"status": deck.Status, "error": deck.Error})
		return
	}

	respond.OK(c, gin.H{
		"deckId":    deck.ID,
		"status":    deck.Status,
		"result":    json.RawMessage(analysis.ResultJSON),
		"createdAt": analysis.CreatedAt,
	})
}

func (h *Handler) reprocess(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	deck, err := h.Svc.Reprocess(c.Request.Context(), ownerID, c.Param("id"), middleware.RequestIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrQueueNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "processing queue is not configured", nil)
		default:
			respond.Error(c, http.StatusConflict, "reprocess_rejected", err.Error(), nil)
		}
		return
	}

	respond.Accepted(c, toResponse(deck))
}
