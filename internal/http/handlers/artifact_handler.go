// Artifact HTTP handlers.
//
// This file exposes REST endpoints for artifact resources:
//   - POST /ventures/{id}/artifacts                     (create)
//   - GET  /ventures/{id}/artifacts                     (list, ?phase= filter)
//   - GET  /ventures/{id}/artifacts/{aid}               (fetch)
//   - PUT  /ventures/{id}/artifacts/{aid}               (replace content, versioned)
//   - GET  /ventures/{id}/artifacts/{aid}/versions      (archived versions)
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// CreateArtifactRequest is the JSON payload for storing a caller-provided
// artifact.
type CreateArtifactRequest struct {
	Type        string          `json:"type" binding:"required"`
	Name        string          `json:"name"`
	PhaseNumber int             `json:"phase_number" binding:"required"`
	Content     json.RawMessage `json:"content" binding:"required"`
}

// UpdateArtifactRequest is the JSON payload for replacing artifact content.
type UpdateArtifactRequest struct {
	Content json.RawMessage `json:"content" binding:"required"`
}

// artifactID validates the :aid path parameter as a UUID.
func artifactID(c *gin.Context) (string, bool) {
	id := c.Param("aid")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "artifact id must be a UUID")
		return "", false
	}
	return id, true
}

// CreateArtifact stores a caller-provided artifact at version 1.
func (h *Handlers) CreateArtifact(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	var req CreateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type, phase_number and content required")
		return
	}

	a, err := h.artifactSvc.Create(c.Request.Context(), userID(c), id, req.PhaseNumber, req.Type, req.Name, string(req.Content))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListArtifacts returns a venture's artifacts, optionally filtered by
// ?phase=.
func (h *Handlers) ListArtifacts(c *gin.Context) {
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

	items, err := h.artifactSvc.List(c.Request.Context(), userID(c), id, phase)
	if err != nil {
		failFromService(c, err)
		return
	}
	if items == nil {
		items = []domain.Artifact{}
	}
	ok(c, http.StatusOK, gin.H{"artifacts": items})
}

// GetArtifact returns one artifact scoped to the venture.
func (h *Handlers) GetArtifact(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	aid, valid := artifactID(c)
	if !valid {
		return
	}
	a, err := h.artifactSvc.Get(c.Request.Context(), userID(c), id, aid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateArtifact replaces an artifact's content; the prior content is
// archived and the version bumped.
func (h *Handlers) UpdateArtifact(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	aid, valid := artifactID(c)
	if !valid {
		return
	}
	var req UpdateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	a, err := h.artifactSvc.Update(c.Request.Context(), userID(c), id, aid, string(req.Content))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// ListArtifactVersions returns an artifact's archived versions, oldest
// first.
func (h *Handlers) ListArtifactVersions(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	aid, valid := artifactID(c)
	if !valid {
		return
	}
	versions, err := h.artifactSvc.Versions(c.Request.Context(), userID(c), id, aid)
	if err != nil {
		failFromService(c, err)
		return
	}
	if versions == nil {
		versions = []domain.ArtifactVersion{}
	}
	ok(c, http.StatusOK, gin.H{"versions": versions})
}
