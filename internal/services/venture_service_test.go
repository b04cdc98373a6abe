package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/repo"
)

func newVentureTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("venture_svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestVentureCreate_SeedsPhases(t *testing.T) {
	db := newVentureTestDB(t)
	svc := NewVentureService(db)
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", "lawn care on demand")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Name != "Lawn Care On Demand" {
		t.Fatalf("name not title-cased: %q", v.Name)
	}

	phases, err := repo.ListPhases(ctx, db, v.ID)
	if err != nil {
		t.Fatalf("list phases: %v", err)
	}
	if len(phases) != domain.PhaseCount {
		t.Fatalf("expected %d phases, got %d", domain.PhaseCount, len(phases))
	}
	if phases[0].Status != domain.PhaseStatusActive {
		t.Fatalf("phase 1 status=%q want active", phases[0].Status)
	}
	for _, ph := range phases[1:] {
		if ph.Status != domain.PhaseStatusLocked {
			t.Fatalf("phase %d status=%q want locked", ph.Number, ph.Status)
		}
	}
}

func TestVentureCreate_NameNormalization(t *testing.T) {
	db := newVentureTestDB(t)
	svc := NewVentureService(db)
	svc.NameMaxLen = 10
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", "  my    very long venture name  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Contains(v.Name, "  ") {
		t.Fatalf("whitespace not collapsed: %q", v.Name)
	}
	if got := len([]rune(v.Name)); got != 10 {
		t.Fatalf("name not clipped: %q (%d runes)", v.Name, got)
	}

	// blank input falls back to a default
	v, err = svc.Create(ctx, "u1", "   ")
	if err != nil {
		t.Fatalf("create blank: %v", err)
	}
	if v.Name == "" {
		t.Fatalf("blank name not defaulted")
	}
}

func TestVentureCreate_EnforcesCap(t *testing.T) {
	db := newVentureTestDB(t)
	svc := NewVentureService(db)
	svc.MaxPerUser = 3
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "u1", fmt.Sprintf("V%d", i)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := svc.Create(ctx, "u1", "one too many"); !errors.Is(err, ErrVentureLimit) {
		t.Fatalf("expected ErrVentureLimit, got %v", err)
	}
	// other users are unaffected
	if _, err := svc.Create(ctx, "u2", "fresh"); err != nil {
		t.Fatalf("other user blocked: %v", err)
	}
}

func TestVentureUpdateFields_WhitelistOnly(t *testing.T) {
	db := newVentureTestDB(t)
	svc := NewVentureService(db)
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", "V")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.UpdateFields(ctx, "u1", v.ID, map[string]any{
		"problem_statement":    "  people wait days for a quote  ",
		"legal_entity_skipped": true,
		"user_id":              "u2",
		"bogus":                "dropped",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ProblemStatement != "people wait days for a quote" {
		t.Fatalf("problem statement: %q", got.ProblemStatement)
	}
	if !got.LegalEntitySkipped {
		t.Fatalf("legal_entity_skipped not set")
	}
	if got.UserID != "u1" {
		t.Fatalf("ownership rewritten: %q", got.UserID)
	}

	if _, err := svc.UpdateFields(ctx, "u1", "missing", map[string]any{"name": "x"}); !errors.Is(err, ErrVentureNotFound) {
		t.Fatalf("expected ErrVentureNotFound, got %v", err)
	}
}
