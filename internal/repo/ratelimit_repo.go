// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the daily quota counter.
//
// The reservation is pessimistic: the budget is debited before the costly
// downstream action runs. The check-and-increment is a single conditional
// UPDATE so two concurrent reservations can never both succeed beyond the
// limit, regardless of interleaving.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// ErrLimitExceeded indicates the daily budget cannot cover the requested
// cost. The service layer maps it to its quota-exceeded business error.
var ErrLimitExceeded = errors.New("daily limit exceeded")

// ReserveQuota atomically debits cost units from the (entity, day) counter
// against limit and returns the units remaining after the debit.
//
// On first use for a day it creates the counter at cost, provided cost
// itself fits under the limit. On an existing counter the debit succeeds
// only if used + cost <= limit; the check and the increment are one
// conditional UPDATE. A create racing another first-use caller loses on the
// unique index and retries the conditional update once.
func ReserveQuota(ctx context.Context, db *gorm.DB, entityID, day string, cost, limit int) (int, error) {
	if cost <= 0 {
		return 0, errors.New("cost must be positive")
	}
	if cost > limit {
		return 0, ErrLimitExceeded
	}

	applied, err := debitIfWithinLimit(ctx, db, entityID, day, cost, limit)
	if err != nil {
		return 0, err
	}
	if !applied {
		exists, err := counterExists(ctx, db, entityID, day)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, ErrLimitExceeded
		}
		// First use today: create the counter already debited.
		row := &domain.RateLimit{
			ID:        uuid.NewString(),
			EntityID:  entityID,
			Date:      day,
			Used:      cost,
			CreatedAt: time.Now().UTC(),
		}
		if cerr := db.WithContext(ctx).Create(row).Error; cerr != nil {
			if !isUniqueViolation(cerr) {
				return 0, cerr
			}
			// Lost the create race; the winner's row is live now.
			applied, err = debitIfWithinLimit(ctx, db, entityID, day, cost, limit)
			if err != nil {
				return 0, err
			}
			if !applied {
				return 0, ErrLimitExceeded
			}
		}
	}

	used, err := GetQuotaUsed(ctx, db, entityID, day)
	if err != nil {
		return 0, err
	}
	return limit - used, nil
}

// debitIfWithinLimit performs the atomic check-and-increment. It reports
// whether a row was updated (false means either no row or over limit).
func debitIfWithinLimit(ctx context.Context, db *gorm.DB, entityID, day string, cost, limit int) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.RateLimit{}).
		Where("entity_id = ? AND date = ? AND used + ? <= ?", entityID, day, cost, limit).
		Updates(map[string]any{
			"used":       gorm.Expr("used + ?", cost),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func counterExists(ctx context.Context, db *gorm.DB, entityID, day string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RateLimit{}).
		Where("entity_id = ? AND date = ?", entityID, day).
		Count(&total).Error
	return total > 0, err
}

// GetQuotaUsed returns the units consumed by entity on the given day.
// A missing counter reads as zero (nothing used yet today).
func GetQuotaUsed(ctx context.Context, db *gorm.DB, entityID, day string) (int, error) {
	var rl domain.RateLimit
	err := db.WithContext(ctx).
		Where("entity_id = ? AND date = ?", entityID, day).
		First(&rl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rl.Used, nil
}
