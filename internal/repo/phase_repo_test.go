package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

func newPhaseRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("phase_repo_test_%d.db", time.Now().UnixNano()))
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

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestSeedPhases_FiveRows_FirstActive(t *testing.T) {
	db := newPhaseRepoDB(t, &domain.Phase{})
	ctx := context.Background()

	if err := SeedPhases(ctx, db, "v1"); err != nil {
		t.Fatalf("SeedPhases: %v", err)
	}

	phases, err := ListPhases(ctx, db, "v1")
	if err != nil {
		t.Fatalf("ListPhases: %v", err)
	}
	if len(phases) != domain.PhaseCount {
		t.Fatalf("expected %d phases, got %d", domain.PhaseCount, len(phases))
	}
	for i, ph := range phases {
		if ph.Number != i+1 {
			t.Fatalf("phases out of order: %+v", phases)
		}
		want := domain.PhaseStatusLocked
		if ph.Number == 1 {
			want = domain.PhaseStatusActive
		}
		if ph.Status != want {
			t.Fatalf("phase %d status=%q want %q", ph.Number, ph.Status, want)
		}
		crit, err := domain.DecodeCriteria(ph.CriteriaJSON)
		if err != nil {
			t.Fatalf("phase %d criteria: %v", ph.Number, err)
		}
		if len(crit) == 0 {
			t.Fatalf("phase %d seeded without criteria", ph.Number)
		}
	}
}

func TestUpdatePhaseStatusIf_CASSemantics(t *testing.T) {
	db := newPhaseRepoDB(t, &domain.Phase{})
	ctx := context.Background()
	if err := SeedPhases(ctx, db, "v1"); err != nil {
		t.Fatalf("SeedPhases: %v", err)
	}

	// active → complete succeeds once
	swapped, err := UpdatePhaseStatusIf(ctx, db, "v1", 1, domain.PhaseStatusActive, domain.PhaseStatusComplete)
	if err != nil {
		t.Fatalf("UpdatePhaseStatusIf: %v", err)
	}
	if !swapped {
		t.Fatalf("expected first swap to succeed")
	}

	// repeating the same transition fails: the precondition no longer holds
	swapped, err = UpdatePhaseStatusIf(ctx, db, "v1", 1, domain.PhaseStatusActive, domain.PhaseStatusComplete)
	if err != nil {
		t.Fatalf("UpdatePhaseStatusIf (repeat): %v", err)
	}
	if swapped {
		t.Fatalf("repeat swap should not match any row")
	}

	// the row really is complete
	ph, err := GetPhase(ctx, db, "v1", 1)
	if err != nil {
		t.Fatalf("GetPhase: %v", err)
	}
	if ph.Status != domain.PhaseStatusComplete {
		t.Fatalf("status=%q want complete", ph.Status)
	}

	// unlocking phase 2 works only from locked
	swapped, err = UpdatePhaseStatusIf(ctx, db, "v1", 2, domain.PhaseStatusLocked, domain.PhaseStatusActive)
	if err != nil || !swapped {
		t.Fatalf("unlock phase 2: swapped=%v err=%v", swapped, err)
	}
	swapped, _ = UpdatePhaseStatusIf(ctx, db, "v1", 2, domain.PhaseStatusLocked, domain.PhaseStatusActive)
	if swapped {
		t.Fatalf("second unlock must be a no-op")
	}
}

func TestUpdatePhaseCriteria_PersistsSatisfied(t *testing.T) {
	db := newPhaseRepoDB(t, &domain.Phase{})
	ctx := context.Background()
	if err := SeedPhases(ctx, db, "v1"); err != nil {
		t.Fatalf("SeedPhases: %v", err)
	}

	crit := domain.SeedCriteria(1)
	for _, c := range crit {
		crit.Set(c.Key, true)
	}
	raw, err := crit.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := UpdatePhaseCriteria(ctx, db, "v1", 1, raw, true); err != nil {
		t.Fatalf("UpdatePhaseCriteria: %v", err)
	}

	ph, err := GetPhase(ctx, db, "v1", 1)
	if err != nil {
		t.Fatalf("GetPhase: %v", err)
	}
	if !ph.Satisfied {
		t.Fatalf("satisfied bit not persisted")
	}
	got, err := domain.DecodeCriteria(ph.CriteriaJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.AllSatisfied() {
		t.Fatalf("criteria not persisted: %+v", got)
	}
}

func TestGetPhase_Missing(t *testing.T) {
	db := newPhaseRepoDB(t, &domain.Phase{})
	if _, err := GetPhase(context.Background(), db, "nope", 1); err == nil {
		t.Fatalf("expected error for missing phase")
	}
}
