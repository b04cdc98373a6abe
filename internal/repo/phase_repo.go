// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Phase
// model, including the compare-and-swap status transition primitive that
// the gate engine relies on for race-safe completion and unlocking.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// SeedPhases inserts the five phase rows for a freshly created venture:
// phase 1 active, phases 2..5 locked, each with its fixed criteria set.
// Intended to run inside the venture-creation transaction.
func SeedPhases(ctx context.Context, db *gorm.DB, ventureID string) error {
	now := time.Now().UTC()
	for n := 1; n <= domain.PhaseCount; n++ {
		status := domain.PhaseStatusLocked
		if n == 1 {
			status = domain.PhaseStatusActive
		}
		raw, err := domain.SeedCriteria(n).Encode()
		if err != nil {
			return err
		}
		p := &domain.Phase{
			ID:           uuid.NewString(),
			VentureID:    ventureID,
			Number:       n,
			Title:        domain.PhaseTitle(n),
			Status:       status,
			CriteriaJSON: raw,
			CreatedAt:    now,
		}
		if err := db.WithContext(ctx).Create(p).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetPhase fetches one phase row by venture and number, or ErrNotFound.
func GetPhase(ctx context.Context, db *gorm.DB, ventureID string, number int) (*domain.Phase, error) {
	var p domain.Phase
	err := db.WithContext(ctx).
		Where("venture_id = ? AND number = ?", ventureID, number).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPhases returns all phases of a venture ordered by number.
func ListPhases(ctx context.Context, db *gorm.DB, ventureID string) ([]domain.Phase, error) {
	var out []domain.Phase
	err := db.WithContext(ctx).
		Where("venture_id = ?", ventureID).
		Order("number ASC").
		Find(&out).Error
	return out, err
}

// UpdatePhaseCriteria persists the recomputed criteria set and the
// aggregate satisfied bit. This write is unconditional: evaluation always
// records its latest view as long as the phase is not complete (the service
// layer never calls it for completed phases).
func UpdatePhaseCriteria(ctx context.Context, db *gorm.DB, ventureID string, number int, criteriaJSON string, satisfied bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Phase{}).
		Where("venture_id = ? AND number = ?", ventureID, number).
		Updates(map[string]any{
			"criteria_json": criteriaJSON,
			"satisfied":     satisfied,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePhaseStatusIf transitions a phase's status from `from` to `to` only
// if the row still holds `from` at write time. It reports whether the write
// applied. Two racing evaluations can both observe "all gates satisfied";
// the conditional write guarantees exactly one of them performs the
// transition, the other sees swapped=false and reads the new state.
func UpdatePhaseStatusIf(ctx context.Context, db *gorm.DB, ventureID string, number int, from, to string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Phase{}).
		Where("venture_id = ? AND number = ? AND status = ?", ventureID, number, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
