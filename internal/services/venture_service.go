// Package services – VentureService
//
// This file implements the VentureService, which manages the venture
// lifecycle: creation (capped per user, with the five phase rows seeded in
// the same transaction), retrieval, listing, and partial business-plan
// field updates against a whitelisted key set.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/repo"
)

// planFieldColumns whitelists the JSON keys accepted by UpdateFields and
// maps them to their database columns. Anything else in the payload is
// silently dropped.
var planFieldColumns = map[string]string{
	"name":                 "name",
	"problem_statement":    "problem_statement",
	"solution":             "solution",
	"target_customer":      "target_customer",
	"offer":                "offer",
	"revenue_model":        "revenue_model",
	"distribution_channel": "distribution_channel",
	"estimated_costs":      "estimated_costs",
	"advantage":            "advantage",
	"legal_entity":         "legal_entity",
}

// VentureService provides venture-level operations. It enforces the
// per-user venture cap and name normalization rules.
type VentureService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MaxPerUser caps how many ventures one user may own.
	MaxPerUser int
	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
}

// NewVentureService constructs a VentureService with default caps.
func NewVentureService(db *gorm.DB) *VentureService {
	return &VentureService{DB: db, MaxPerUser: 3, NameMaxLen: 80}
}

// Create inserts a new venture owned by userID and seeds its five phase
// rows (phase 1 active, 2..5 locked) in one transaction. Returns
// ErrVentureLimit when the user already owns MaxPerUser ventures.
func (s *VentureService) Create(ctx context.Context, userID, name string) (*domain.Venture, error) {
	name = normalizeName(name)
	if name == "" {
		name = "New venture"
	}
	name = s.clip(titleCaser.String(name))

	total, err := repo.CountVentures(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if s.MaxPerUser > 0 && total >= int64(s.MaxPerUser) {
		return nil, ErrVentureLimit
	}

	var created *domain.Venture
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.CreateVenture(ctx, tx, userID, name)
		if err != nil {
			return err
		}
		if err := repo.SeedPhases(ctx, tx, v.ID); err != nil {
			return err
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get fetches a venture owned by userID, or ErrVentureNotFound.
func (s *VentureService) Get(ctx context.Context, userID, ventureID string) (*domain.Venture, error) {
	v, err := repo.GetVenture(ctx, s.DB, ventureID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVentureNotFound
		}
		return nil, err
	}
	return v, nil
}

// List returns all ventures of a user, most recent first.
func (s *VentureService) List(ctx context.Context, userID string) ([]domain.Venture, error) {
	return repo.ListVentures(ctx, s.DB, userID)
}

// UpdateFields applies a partial business-plan update. Only whitelisted
// keys are written; the special boolean key legal_entity_skipped is also
// accepted. Returns the venture as persisted after the update.
func (s *VentureService) UpdateFields(ctx context.Context, userID, ventureID string, fields map[string]any) (*domain.Venture, error) {
	cols := make(map[string]any, len(fields))
	for k, v := range fields {
		if col, ok := planFieldColumns[k]; ok {
			if sv, ok := v.(string); ok {
				cols[col] = strings.TrimSpace(sv)
			}
			continue
		}
		if k == "legal_entity_skipped" {
			if bv, ok := v.(bool); ok {
				cols["legal_entity_skipped"] = bv
			}
		}
	}
	if len(cols) > 0 {
		if err := repo.UpdateVentureFields(ctx, s.DB, ventureID, userID, cols); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrVentureNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, userID, ventureID)
}

// clip truncates a venture name to the configured maximum rune length.
func (s *VentureService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// normalizeName trims whitespace and collapses runs of spaces to one.
func normalizeName(s string) string {
	return nameWhitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var (
	nameWhitespaceRE = regexp.MustCompile(`\s+`)
	titleCaser       = cases.Title(language.English, cases.NoLower)
)
