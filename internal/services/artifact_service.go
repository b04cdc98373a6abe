// Package services – ArtifactService
//
// This file implements CRUD over venture artifacts. Artifact types form a
// closed enumeration; content is stored as the JSON the caller (or the
// generator) provided, and every update archives the prior version.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/repo"
)

// ArtifactService owns artifact persistence and validation.
type ArtifactService struct {
	DB *gorm.DB
}

// NewArtifactService constructs an ArtifactService.
func NewArtifactService(db *gorm.DB) *ArtifactService {
	return &ArtifactService{DB: db}
}

// Create stores a caller-provided artifact. The type must belong to the
// closed enumeration and the content must be valid JSON.
func (s *ArtifactService) Create(ctx context.Context, userID, ventureID string, phaseNumber int, typ, name, contentJSON string) (*domain.Artifact, error) {
	if !domain.ValidArtifactType(typ) {
		return nil, ErrInvalidArtifactType
	}
	if phaseNumber < 1 || phaseNumber > domain.PhaseCount {
		return nil, ErrPhaseNotFound
	}
	if !json.Valid([]byte(contentJSON)) {
		return nil, errors.New("content is not valid JSON")
	}
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		return nil, ErrVentureNotFound
	}
	if strings.TrimSpace(name) == "" {
		name = strings.ReplaceAll(typ, "_", " ")
	}
	return repo.CreateArtifact(ctx, s.DB, ventureID, phaseNumber, typ, name, contentJSON)
}

// Get returns one artifact scoped to its venture.
func (s *ArtifactService) Get(ctx context.Context, userID, ventureID, artifactID string) (*domain.Artifact, error) {
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		return nil, ErrVentureNotFound
	}
	a, err := repo.GetArtifact(ctx, s.DB, artifactID, ventureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns a venture's artifacts, optionally filtered to one phase
// (phaseNumber <= 0 lists all).
func (s *ArtifactService) List(ctx context.Context, userID, ventureID string, phaseNumber int) ([]domain.Artifact, error) {
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		return nil, ErrVentureNotFound
	}
	return repo.ListArtifacts(ctx, s.DB, ventureID, phaseNumber)
}

// Update replaces an artifact's content, bumping its version and archiving
// the prior content.
func (s *ArtifactService) Update(ctx context.Context, userID, ventureID, artifactID, contentJSON string) (*domain.Artifact, error) {
	if !json.Valid([]byte(contentJSON)) {
		return nil, errors.New("content is not valid JSON")
	}
	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		return nil, ErrVentureNotFound
	}
	a, err := repo.UpdateArtifact(ctx, s.DB, artifactID, ventureID, contentJSON)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return a, nil
}

// Versions returns an artifact's archived versions, oldest first.
func (s *ArtifactService) Versions(ctx context.Context, userID, ventureID, artifactID string) ([]domain.ArtifactVersion, error) {
	if _, err := s.Get(ctx, userID, ventureID, artifactID); err != nil {
		return nil, err
	}
	return repo.ListArtifactVersions(ctx, s.DB, artifactID)
}

// encodeRawFallback wraps an unparseable generation response so nothing is
// lost: the stored content is valid JSON flagged with parse_error.
func encodeRawFallback(raw string) (string, error) {
	b, err := json.Marshal(map[string]any{
		"raw":         raw,
		"parse_error": true,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
