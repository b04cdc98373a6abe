package services

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

func newQuotaTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("quota_svc_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.RateLimit{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestQuotaReserve_DebitsAndRefuses(t *testing.T) {
	db := newQuotaTestDB(t)
	svc := NewQuotaService(db, 5)
	ctx := context.Background()

	remaining, err := svc.Reserve(ctx, "u1", 1)
	if err != nil || remaining != 4 {
		t.Fatalf("first reserve: remaining=%d err=%v", remaining, err)
	}
	remaining, err = svc.Reserve(ctx, "u1", 3)
	if err != nil || remaining != 1 {
		t.Fatalf("generation reserve: remaining=%d err=%v", remaining, err)
	}

	// 3 more would cross the limit: refused whole, counter untouched
	if _, err := svc.Reserve(ctx, "u1", 3); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	st, err := svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Used != 4 || st.Remaining != 1 {
		t.Fatalf("status after refusal: %+v", st)
	}
}

func TestQuotaStatus_FreshEntityAndReset(t *testing.T) {
	db := newQuotaTestDB(t)
	svc := NewQuotaService(db, 30)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 27, 13, 45, 0, 0, time.UTC)
	}
	ctx := context.Background()

	st, err := svc.Status(ctx, "nobody")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Limit != 30 || st.Used != 0 || st.Remaining != 30 {
		t.Fatalf("fresh status: %+v", st)
	}
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if !st.ResetsAt.Equal(want) {
		t.Fatalf("resets_at=%v want %v", st.ResetsAt, want)
	}
}

func TestQuotaReserve_DayRollover(t *testing.T) {
	db := newQuotaTestDB(t)
	svc := NewQuotaService(db, 2)
	day := time.Date(2026, 8, 27, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, "u1", 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := svc.Reserve(ctx, "u1", 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// clock crosses UTC midnight, budget is back
	day = day.Add(2 * time.Hour)
	remaining, err := svc.Reserve(ctx, "u1", 1)
	if err != nil || remaining != 1 {
		t.Fatalf("post-rollover: remaining=%d err=%v", remaining, err)
	}
}

func TestNextUTCMidnight(t *testing.T) {
	in := time.Date(2026, 12, 31, 23, 59, 59, 0, time.FixedZone("CET", 3600))
	got := nextUTCMidnight(in)
	want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("nextUTCMidnight(%v)=%v want %v", in, got, want)
	}
}
