// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Artifact and
// its immutable version-history side table.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// CreateArtifact inserts a new artifact at version 1. Type validation
// against the closed enumeration happens at the service layer.
func CreateArtifact(ctx context.Context, db *gorm.DB, ventureID string, phaseNumber int, typ, name, contentJSON string) (*domain.Artifact, error) {
	a := &domain.Artifact{
		ID:          uuid.NewString(),
		VentureID:   ventureID,
		PhaseNumber: phaseNumber,
		Type:        typ,
		Name:        name,
		ContentJSON: contentJSON,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetArtifact fetches an artifact by ID scoped to its owning venture.
func GetArtifact(ctx context.Context, db *gorm.DB, id, ventureID string) (*domain.Artifact, error) {
	var a domain.Artifact
	err := db.WithContext(ctx).
		Where("id = ? AND venture_id = ?", id, ventureID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtifacts returns a venture's artifacts ordered by phase then creation
// time (the order the prompt assembler renders them in). Pass phaseNumber
// <= 0 to list across all phases.
func ListArtifacts(ctx context.Context, db *gorm.DB, ventureID string, phaseNumber int) ([]domain.Artifact, error) {
	q := db.WithContext(ctx).Where("venture_id = ?", ventureID)
	if phaseNumber > 0 {
		q = q.Where("phase_number = ?", phaseNumber)
	}
	var out []domain.Artifact
	err := q.Order("phase_number ASC, created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// UpdateArtifact replaces an artifact's content, bumping Version and
// archiving the prior content verbatim in artifact_versions. The archive
// and the bump commit atomically.
func UpdateArtifact(ctx context.Context, db *gorm.DB, id, ventureID, contentJSON string) (*domain.Artifact, error) {
	var updated *domain.Artifact
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Artifact
		if err := tx.Where("id = ? AND venture_id = ?", id, ventureID).First(&a).Error; err != nil {
			return err
		}
		hist := &domain.ArtifactVersion{
			ID:          uuid.NewString(),
			ArtifactID:  a.ID,
			Version:     a.Version,
			ContentJSON: a.ContentJSON,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.Create(hist).Error; err != nil {
			return err
		}
		a.ContentJSON = contentJSON
		a.Version++
		a.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&domain.Artifact{}).Where("id = ?", a.ID).Updates(map[string]any{
			"content_json": a.ContentJSON,
			"version":      a.Version,
			"updated_at":   a.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		updated = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListArtifactVersions returns the archived versions of an artifact,
// oldest first.
func ListArtifactVersions(ctx context.Context, db *gorm.DB, artifactID string) ([]domain.ArtifactVersion, error) {
	var out []domain.ArtifactVersion
	err := db.WithContext(ctx).
		Where("artifact_id = ?", artifactID).
		Order("version ASC").
		Find(&out).Error
	return out, err
}
