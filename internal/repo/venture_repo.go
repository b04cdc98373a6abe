// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Venture
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a venture is not found, functions return ErrNotFound
//     (gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// CreateVenture inserts a new Venture row owned by userID with the given
// name. The venture ID is a randomly generated UUID, CreatedAt is UTC.
func CreateVenture(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Venture, error) {
	v := &domain.Venture{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// GetVenture fetches a single venture by its ID and owner. If the record
// does not exist (or belongs to another user), it returns ErrNotFound.
func GetVenture(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Venture, error) {
	var v domain.Venture
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVentures returns all ventures belonging to userID, most recent first.
func ListVentures(ctx context.Context, db *gorm.DB, userID string) ([]domain.Venture, error) {
	var out []domain.Venture
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountVentures returns the total number of ventures owned by userID.
// The service layer uses this to enforce the per-user venture cap.
func CountVentures(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Venture{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// UpdateVentureFields applies a partial column update to a venture owned by
// userID. The caller is responsible for whitelisting the field map. If no
// rows are affected (venture missing or not owned), it returns ErrNotFound.
func UpdateVentureFields(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Venture{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
