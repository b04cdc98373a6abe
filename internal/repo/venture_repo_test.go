package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

func newVentureRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("venture_repo_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.Venture{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateAndGetVenture_OwnerScoped(t *testing.T) {
	db := newVentureRepoDB(t)
	ctx := context.Background()

	v, err := CreateVenture(ctx, db, "u1", "Acme Lawn Care")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.ID == "" || v.UserID != "u1" || v.Name != "Acme Lawn Care" {
		t.Fatalf("unexpected venture: %+v", v)
	}

	if _, err := GetVenture(ctx, db, v.ID, "u1"); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	// another user's lookup by a valid ID must miss
	if _, err := GetVenture(ctx, db, v.ID, "u2"); err == nil {
		t.Fatalf("expected cross-user lookup to fail")
	}
}

func TestCountAndListVentures(t *testing.T) {
	db := newVentureRepoDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := CreateVenture(ctx, db, "u1", fmt.Sprintf("V%d", i)); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := CreateVenture(ctx, db, "u2", "other"); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	n, err := CountVentures(ctx, db, "u1")
	if err != nil || n != 3 {
		t.Fatalf("count=%d err=%v, want 3", n, err)
	}
	items, err := ListVentures(ctx, db, "u1")
	if err != nil || len(items) != 3 {
		t.Fatalf("list len=%d err=%v", len(items), err)
	}
}

func TestUpdateVentureFields(t *testing.T) {
	db := newVentureRepoDB(t)
	ctx := context.Background()

	v, err := CreateVenture(ctx, db, "u1", "V")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = UpdateVentureFields(ctx, db, v.ID, "u1", map[string]any{
		"problem_statement":    "people wait too long for quotes",
		"legal_entity_skipped": true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := GetVenture(ctx, db, v.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProblemStatement != "people wait too long for quotes" || !got.LegalEntitySkipped {
		t.Fatalf("fields not persisted: %+v", got)
	}

	// missing row surfaces ErrNotFound
	err = UpdateVentureFields(ctx, db, "missing", "u1", map[string]any{"name": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
