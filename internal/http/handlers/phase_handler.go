// Phase and gate HTTP handlers.
//
// This file exposes REST endpoints for the phase workflow:
//   - GET  /ventures/{id}/phases                      (enriched list)
//   - POST /ventures/{id}/phases/{n}/evaluate         (gate evaluation)
//   - POST /ventures/{id}/phases/{n}/unlock           (force unlock)
//   - PUT  /ventures/{id}/phases/{n}/gates/{key}      (self-reported gate)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// phaseNumber validates the :n path parameter as a phase number in
// [1, PhaseCount], failing the request with 400 when out of range.
func phaseNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 || n > domain.PhaseCount {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phase number must be in [1,5]")
		return 0, false
	}
	return n, true
}

// ForceUnlockRequest is the JSON payload for the administrative unlock.
type ForceUnlockRequest struct {
	// Reason is recorded in the audit log entry for the override.
	Reason string `json:"reason"`
}

// UpdateGateRequest is the JSON payload for setting a self-reported gate.
type UpdateGateRequest struct {
	Satisfied *bool `json:"satisfied" binding:"required"`
}

// ListPhases returns all five phases of a venture, decorated with decoded
// gate criteria and per-phase artifact counts.
func (h *Handlers) ListPhases(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	phases, err := h.gateSvc.EnrichedPhases(c.Request.Context(), userID(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"phases": phases})
}

// EvaluateGate recomputes one phase's gate criteria and advances the
// workflow when they all hold. Evaluating a locked phase is a conflict;
// evaluating a completed phase is a pure read.
func (h *Handlers) EvaluateGate(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	n, valid := phaseNumber(c)
	if !valid {
		return
	}
	res, err := h.gateSvc.EvaluateGate(c.Request.Context(), userID(c), id, n)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ForceUnlock transitions a locked phase to active (administrative
// override). Non-locked phases come back unchanged.
func (h *Handlers) ForceUnlock(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	n, valid := phaseNumber(c)
	if !valid {
		return
	}
	var req ForceUnlockRequest
	// Body is optional; a missing reason is recorded as such.
	_ = c.ShouldBindJSON(&req)

	ph, err := h.gateSvc.ForceUnlock(c.Request.Context(), userID(c), id, n, req.Reason)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ph)
}

// UpdateGate sets the satisfied value of one self-reported gate criterion
// and returns the phase's full criteria set.
func (h *Handlers) UpdateGate(c *gin.Context) {
	id, valid := ventureID(c)
	if !valid {
		return
	}
	n, valid := phaseNumber(c)
	if !valid {
		return
	}
	key := c.Param("key")

	var req UpdateGateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Satisfied == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "satisfied (boolean) required")
		return
	}

	crit, err := h.gateSvc.UpdateGateCriterion(c.Request.Context(), userID(c), id, n, key, *req.Satisfied)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"phase_number": n, "gate_criteria": crit})
}
