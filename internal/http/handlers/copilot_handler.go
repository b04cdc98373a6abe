// Copilot HTTP handlers.
//
// This file exposes the AI copilot endpoints:
//   - POST /ventures/{id}/chat                 (one turn, quota-metered)
//   - GET  /ventures/{id}/chat/history         (conversation messages)
//   - POST /ventures/{id}/artifacts/generate   (structured draft, quota-metered)
//   - GET  /rate-limit                         (daily budget status)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// ChatRequest is the JSON payload for one copilot turn.
type ChatRequest struct {
	// Message is the user's prompt. Required.
	Message string `json:"message" binding:"required"`
	// ConversationID optionally targets an existing thread; empty means
	// the default thread of the venture's current phase.
	ConversationID string `json:"conversation_id"`
}

// GenerateArtifactRequest is the JSON payload for artifact generation.
type GenerateArtifactRequest struct {
	// Type selects the document kind; must belong to the closed enumeration.
	Type string `json:"type" binding:"required"`
	// Name optionally overrides the stored artifact name.
	Name string `json:"name"`
}

// HistoryResponse wraps a conversation's messages.
type HistoryResponse struct {
	ConversationID string               `json:"conversation_id"`
	Messages       []domain.ChatMessage `json:"messages"`
}

// Chat runs one copilot turn. The daily quota is debited before the model
// call and is not refunded when the call fails.
func (h *Handlers) Chat(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	reply, err := h.copilotSvc.Chat(c.Request.Context(), userID(c), id, req.ConversationID, req.Message)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, reply)
}

// ChatHistory returns a conversation's messages, oldest first. Accepts
// either ?conversation_id= or ?phase= (default thread); with neither, the
// current phase's default thread is read.
func (h *Handlers) ChatHistory(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	phase := 0
	if raw := c.Query("phase"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > domain.PhaseCount {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phase must be in [1,5]")
			return
		}
		phase = n
	}

	convID, msgs, err := h.copilotSvc.History(c.Request.Context(), userID(c), id, c.Query("conversation_id"), phase)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, HistoryResponse{ConversationID: convID, Messages: msgs})
}

// GenerateArtifact drafts a structured document for the venture's current
// phase and stores it as a new artifact.
func (h *Handlers) GenerateArtifact(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	var req GenerateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Type) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type required")
		return
	}

	a, remaining, err := h.copilotSvc.GenerateArtifact(c.Request.Context(), userID(c), id, req.Type, req.Name)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"artifact": a, "quota_remaining": remaining})
}

// RateLimit reports the current user's daily budget without mutating it.
func (h *Handlers) RateLimit(c *gin.Context) {
	status, err := h.quotaSvc.Status(c.Request.Context(), userID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, status)
}
