// Venture HTTP handlers.
//
// This file exposes REST endpoints for venture resources:
//   - POST   /ventures        (create, seeds the five phases)
//   - GET    /ventures        (list)
//   - GET    /ventures/{id}   (fetch)
//   - PATCH  /ventures/{id}   (partial business-plan update)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. It also declares the service
// contracts consumed by every handler in the package and the shared Handlers
// wiring.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// VentureService defines venture lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type VentureService interface {
	// Create starts a new venture for userID and seeds its phase rows.
	Create(ctx context.Context, userID, name string) (*domain.Venture, error)
	// Get returns one venture owned by userID.
	Get(ctx context.Context, userID, ventureID string) (*domain.Venture, error)
	// List returns all ventures of a user.
	List(ctx context.Context, userID string) ([]domain.Venture, error)
	// UpdateFields applies a partial business-plan update.
	UpdateFields(ctx context.Context, userID, ventureID string, fields map[string]any) (*domain.Venture, error)
}

// GateService defines phase and gate operations.
type GateService interface {
	// EvaluateGate recomputes one phase's gates and advances the workflow.
	EvaluateGate(ctx context.Context, userID, ventureID string, phaseNumber int) (*services.GateResult, error)
	// ForceUnlock transitions a locked phase to active.
	ForceUnlock(ctx context.Context, userID, ventureID string, phaseNumber int, reason string) (*domain.Phase, error)
	// UpdateGateCriterion sets one self-reported gate value.
	UpdateGateCriterion(ctx context.Context, userID, ventureID string, phaseNumber int, key string, satisfied bool) (domain.GateCriteria, error)
	// EnrichedPhases returns all phases with criteria and artifact counts.
	EnrichedPhases(ctx context.Context, userID, ventureID string) ([]services.EnrichedPhase, error)
}

// CopilotService defines AI copilot operations.
type CopilotService interface {
	// Chat runs one copilot turn and persists both messages.
	Chat(ctx context.Context, userID, ventureID, conversationID, message string) (*services.ChatReply, error)
	// GenerateArtifact drafts a structured document and stores it.
	GenerateArtifact(ctx context.Context, userID, ventureID, artifactType, name string) (*domain.Artifact, int, error)
	// History returns one conversation's messages, oldest first.
	History(ctx context.Context, userID, ventureID, conversationID string, phaseNumber int) (string, []domain.ChatMessage, error)
}

// ArtifactService defines artifact CRUD operations.
type ArtifactService interface {
	Create(ctx context.Context, userID, ventureID string, phaseNumber int, typ, name, contentJSON string) (*domain.Artifact, error)
	Get(ctx context.Context, userID, ventureID, artifactID string) (*domain.Artifact, error)
	List(ctx context.Context, userID, ventureID string, phaseNumber int) ([]domain.Artifact, error)
	Update(ctx context.Context, userID, ventureID, artifactID, contentJSON string) (*domain.Artifact, error)
	Versions(ctx context.Context, userID, ventureID, artifactID string) ([]domain.ArtifactVersion, error)
}

// QuotaService exposes the read-only daily budget view.
type QuotaService interface {
	Status(ctx context.Context, entityID string) (*services.QuotaStatus, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for ventures, phases, artifacts, and
// the copilot. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	ventureSvc  VentureService
	gateSvc     GateService
	copilotSvc  CopilotService
	artifactSvc ArtifactService
	quotaSvc    QuotaService
}

// New constructs a Handlers instance bound to the given services.
func New(ventureSvc VentureService, gateSvc GateService, copilotSvc CopilotService, artifactSvc ArtifactService, quotaSvc QuotaService) *Handlers {
	return &Handlers{
		ventureSvc:  ventureSvc,
		gateSvc:     gateSvc,
		copilotSvc:  copilotSvc,
		artifactSvc: artifactSvc,
		quotaSvc:    quotaSvc,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// ventureID validates the :id path parameter as a UUID, failing the request
// with 400 when malformed. The second return value reports validity.
func ventureID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "venture id must be a UUID")
		return "", false
	}
	return id, true
}

//
// DTOs
//

// CreateVentureRequest is the JSON payload for creating a venture.
type CreateVentureRequest struct {
	// Name optionally sets the venture name; a default is used when empty.
	Name string `json:"name"`
}

//
// Handlers
//

// CreateVenture creates a venture for the current user and returns the
// resource. The five phase rows are seeded atomically with it.
func (h *Handlers) CreateVenture(c *gin.Context) {
	var req CreateVentureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	v, err := h.ventureSvc.Create(c.Request.Context(), userID(c), req.Name)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// ListVentures returns all ventures of the current user.
func (h *Handlers) ListVentures(c *gin.Context) {
	items, err := h.ventureSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	if items == nil {
		items = []domain.Venture{}
	}
	ok(c, http.StatusOK, gin.H{"ventures": items})
}

// GetVenture returns one venture owned by the current user.
func (h *Handlers) GetVenture(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	v, err := h.ventureSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// UpdateVenture applies a partial business-plan update. Unknown keys are
// ignored; the persisted venture is returned.
func (h *Handlers) UpdateVenture(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "non-empty JSON object required")
		return
	}
	v, err := h.ventureSvc.UpdateFields(c.Request.Context(), userID(c), id, fields)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}
