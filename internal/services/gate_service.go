// Package services – GateService
//
// This file implements the phase gate engine. A venture moves through five
// ordered phases; each phase carries a fixed set of gate criteria that must
// all hold before it completes and the next phase unlocks. Auto gates are
// recomputed from venture fields and artifacts on every evaluation;
// self-reported gates keep their last caller-set value.
//
// Transitions are conditional writes: completion applies only if the phase
// is still active at write time, and the next-phase unlock applies only if
// that row is still locked. Two racing evaluations therefore cannot
// double-complete or double-unlock; the loser simply observes the
// already-transitioned state.
//
// Phase 5 is terminal and loops: it never completes. Once its gates all
// hold, evaluation reports cycle_complete instead.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/repo"
)

// GateResult is the outcome of one gate evaluation.
type GateResult struct {
	PhaseNumber   int                 `json:"phase_number"`
	Status        string              `json:"status"`
	Passed        bool                `json:"passed"`
	Missing       []string            `json:"missing"`
	Criteria      domain.GateCriteria `json:"gate_criteria"`
	CycleComplete bool                `json:"cycle_complete,omitempty"`
}

// EnrichedPhase is one phase row decorated for the UI surface.
type EnrichedPhase struct {
	Number        int                 `json:"number"`
	Title         string              `json:"title"`
	Status        string              `json:"status"`
	Satisfied     bool                `json:"satisfied"`
	Criteria      domain.GateCriteria `json:"gate_criteria"`
	ArtifactCount int                 `json:"artifact_count"`
}

// GateService evaluates phase gates and mutates phase state.
type GateService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewGateService constructs a GateService.
func NewGateService(db *gorm.DB) *GateService {
	return &GateService{DB: db}
}

// EvaluateGate recomputes the gate criteria of one phase and advances the
// workflow when they all hold.
//
// Behavior by status:
//   - locked:   ErrPhaseLocked (locked phases are never evaluated).
//   - complete: pure read; the cached criteria come back as already passed
//     and nothing is written (completed phases are immutable).
//   - active:   auto gates are recomputed, the criteria and aggregate
//     satisfied bit are persisted unconditionally, and if every gate holds
//     the phase completes and the next phase unlocks — except phase 5,
//     which stays active and reports cycle_complete instead.
func (s *GateService) EvaluateGate(ctx context.Context, userID, ventureID string, phaseNumber int) (*GateResult, error) {
	v, err := repo.GetVenture(ctx, s.DB, ventureID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVentureNotFound
		}
		return nil, err
	}
	ph, err := repo.GetPhase(ctx, s.DB, ventureID, phaseNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}

	crit, err := domain.DecodeCriteria(ph.CriteriaJSON)
	if err != nil {
		return nil, err
	}

	switch ph.Status {
	case domain.PhaseStatusLocked:
		return nil, ErrPhaseLocked
	case domain.PhaseStatusComplete:
		return &GateResult{
			PhaseNumber: phaseNumber,
			Status:      ph.Status,
			Passed:      true,
			Missing:     []string{},
			Criteria:    crit,
		}, nil
	}

	arts, err := repo.ListArtifacts(ctx, s.DB, ventureID, 0)
	if err != nil {
		return nil, err
	}
	crit = recomputeAutoGates(phaseNumber, v, arts, crit)

	passed := crit.AllSatisfied()
	raw, err := crit.Encode()
	if err != nil {
		return nil, err
	}
	if err := repo.UpdatePhaseCriteria(ctx, s.DB, ventureID, phaseNumber, raw, passed); err != nil {
		return nil, err
	}

	res := &GateResult{
		PhaseNumber: phaseNumber,
		Status:      ph.Status,
		Passed:      passed,
		Missing:     crit.Missing(),
		Criteria:    crit,
	}
	if !passed {
		return res, nil
	}

	if phaseNumber == domain.PhaseCount {
		// Terminal phase: re-arms forever.
		res.CycleComplete = true
		return res, nil
	}

	swapped, err := repo.UpdatePhaseStatusIf(ctx, s.DB, ventureID, phaseNumber,
		domain.PhaseStatusActive, domain.PhaseStatusComplete)
	if err != nil {
		return nil, err
	}
	if swapped {
		res.Status = domain.PhaseStatusComplete
		unlocked, err := repo.UpdatePhaseStatusIf(ctx, s.DB, ventureID, phaseNumber+1,
			domain.PhaseStatusLocked, domain.PhaseStatusActive)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("venture_id", ventureID).
			Int("phase", phaseNumber).
			Bool("next_unlocked", unlocked).
			Msg("phase completed")
	} else {
		// A concurrent evaluation won the transition; report the state it
		// produced.
		cur, err := repo.GetPhase(ctx, s.DB, ventureID, phaseNumber)
		if err != nil {
			return nil, err
		}
		res.Status = cur.Status
	}
	return res, nil
}

// ForceUnlock transitions a locked phase to active (administrative
// override). Already-active and completed phases are left untouched and
// returned as-is; a completed phase is never reverted.
func (s *GateService) ForceUnlock(ctx context.Context, userID, ventureID string, phaseNumber int, reason string) (*domain.Phase, error) {
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVentureNotFound
		}
		return nil, err
	}
	ph, err := repo.GetPhase(ctx, s.DB, ventureID, phaseNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	if ph.Status != domain.PhaseStatusLocked {
		return ph, nil
	}
	swapped, err := repo.UpdatePhaseStatusIf(ctx, s.DB, ventureID, phaseNumber,
		domain.PhaseStatusLocked, domain.PhaseStatusActive)
	if err != nil {
		return nil, err
	}
	if swapped {
		log.Warn().
			Str("venture_id", ventureID).
			Int("phase", phaseNumber).
			Str("reason", reason).
			Msg("phase force-unlocked")
	}
	return repo.GetPhase(ctx, s.DB, ventureID, phaseNumber)
}

// UpdateGateCriterion sets the satisfied value of one named gate, used for
// self-reported gates. Unknown keys fail with ErrGateNotFound. Completed
// phases are immutable: the stored criteria are returned unchanged.
func (s *GateService) UpdateGateCriterion(ctx context.Context, userID, ventureID string, phaseNumber int, key string, satisfied bool) (domain.GateCriteria, error) {
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVentureNotFound
		}
		return nil, err
	}
	ph, err := repo.GetPhase(ctx, s.DB, ventureID, phaseNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	crit, err := domain.DecodeCriteria(ph.CriteriaJSON)
	if err != nil {
		return nil, err
	}
	if crit.ByKey(key) == nil {
		return nil, ErrGateNotFound
	}
	if ph.Status == domain.PhaseStatusComplete {
		return crit, nil
	}
	crit.Set(key, satisfied)
	raw, err := crit.Encode()
	if err != nil {
		return nil, err
	}
	if err := repo.UpdatePhaseCriteria(ctx, s.DB, ventureID, phaseNumber, raw, crit.AllSatisfied()); err != nil {
		return nil, err
	}
	return crit, nil
}

// EnrichedPhases returns all phases of a venture with decoded criteria and
// per-phase artifact counts, ordered by number.
func (s *GateService) EnrichedPhases(ctx context.Context, userID, ventureID string) ([]EnrichedPhase, error) {
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVentureNotFound
		}
		return nil, err
	}
	phases, err := repo.ListPhases(ctx, s.DB, ventureID)
	if err != nil {
		return nil, err
	}
	arts, err := repo.ListArtifacts(ctx, s.DB, ventureID, 0)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int, domain.PhaseCount)
	for _, a := range arts {
		counts[a.PhaseNumber]++
	}

	out := make([]EnrichedPhase, 0, len(phases))
	for _, ph := range phases {
		crit, err := domain.DecodeCriteria(ph.CriteriaJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, EnrichedPhase{
			Number:        ph.Number,
			Title:         ph.Title,
			Status:        ph.Status,
			Satisfied:     ph.Satisfied,
			Criteria:      crit,
			ArtifactCount: counts[ph.Number],
		})
	}
	return out, nil
}

// --- Auto gate rules ---

// minProblemStatementLen is the minimum problem-statement length for the
// phase 1 auto gate.
const minProblemStatementLen = 20

// minCompetitors is the minimum count of distinct competitor entries for
// the phase 1 auto gate.
const minCompetitors = 3

// recomputeAutoGates refreshes the auto gates of a phase against current
// venture fields and artifacts. Self-reported gates keep their stored
// value; unknown phase numbers pass through unchanged.
func recomputeAutoGates(phaseNumber int, v *domain.Venture, arts []domain.Artifact, crit domain.GateCriteria) domain.GateCriteria {
	switch phaseNumber {
	case 1:
		crit.Set("problem_statement",
			len(strings.TrimSpace(v.ProblemStatement)) >= minProblemStatementLen)
		crit.Set("competitors_identified", countCompetitors(arts) >= minCompetitors)
	case 2:
		crit.Set("business_plan_complete", planComplete(v))
		crit.Set("offer_created", hasArtifact(arts, domain.ArtifactOffer, 2))
	case 3:
		crit.Set("entity_chosen", v.LegalEntity != "" || v.LegalEntitySkipped)
	case 4:
		// All three gates are self-reported.
	case 5:
		crit.Set("growth_plan", hasArtifact(arts, domain.ArtifactGrowthPlan, 5))
	}
	return crit
}

// planComplete reports whether all eight declared business-plan fields are
// non-empty.
func planComplete(v *domain.Venture) bool {
	for _, f := range v.PlanFields() {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// hasArtifact reports whether an artifact of the given type exists for the
// given phase.
func hasArtifact(arts []domain.Artifact, typ string, phaseNumber int) bool {
	for _, a := range arts {
		if a.Type == typ && a.PhaseNumber == phaseNumber {
			return true
		}
	}
	return false
}

// countCompetitors aggregates distinct competitor entries from the
// venture's competitor-list artifacts. Only the named list fields
// "competitors" and "items" are scanned; entries may be plain strings or
// objects carrying a "name" field.
func countCompetitors(arts []domain.Artifact) int {
	seen := make(map[string]struct{})
	for _, a := range arts {
		if a.Type != domain.ArtifactCompetitorList {
			continue
		}
		var content map[string]any
		if err := json.Unmarshal([]byte(a.ContentJSON), &content); err != nil {
			continue
		}
		for _, field := range []string{"competitors", "items"} {
			list, ok := content[field].([]any)
			if !ok {
				continue
			}
			for _, entry := range list {
				switch e := entry.(type) {
				case string:
					if k := strings.ToLower(strings.TrimSpace(e)); k != "" {
						seen[k] = struct{}{}
					}
				case map[string]any:
					if name, ok := e["name"].(string); ok {
						if k := strings.ToLower(strings.TrimSpace(name)); k != "" {
							seen[k] = struct{}{}
						}
					}
				}
			}
		}
	}
	return len(seen)
}
