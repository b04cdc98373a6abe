package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

func newRateLimitDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("ratelimit_test_%d.db", time.Now().UnixNano()))
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

func TestReserveQuota_CountsDownAndStops(t *testing.T) {
	db := newRateLimitDB(t)
	ctx := context.Background()
	const limit = 30

	for i := 1; i <= limit; i++ {
		remaining, err := ReserveQuota(ctx, db, "u1", "2026-08-27", 1, limit)
		if err != nil {
			t.Fatalf("reservation %d: %v", i, err)
		}
		if remaining != limit-i {
			t.Fatalf("reservation %d: remaining=%d want %d", i, remaining, limit-i)
		}
	}

	// 31st reservation of the day fails
	if _, err := ReserveQuota(ctx, db, "u1", "2026-08-27", 1, limit); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	// next day starts fresh
	remaining, err := ReserveQuota(ctx, db, "u1", "2026-08-28", 1, limit)
	if err != nil || remaining != limit-1 {
		t.Fatalf("new day: remaining=%d err=%v", remaining, err)
	}
}

func TestReserveQuota_MultiUnitCosts(t *testing.T) {
	db := newRateLimitDB(t)
	ctx := context.Background()

	// 3-unit generation on a fresh day
	remaining, err := ReserveQuota(ctx, db, "u1", "2026-08-27", 3, 10)
	if err != nil || remaining != 7 {
		t.Fatalf("first: remaining=%d err=%v", remaining, err)
	}

	// a reservation that would cross the limit is rejected whole, the
	// counter is untouched
	if _, err := ReserveQuota(ctx, db, "u1", "2026-08-27", 8, 10); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	used, err := GetQuotaUsed(ctx, db, "u1", "2026-08-27")
	if err != nil || used != 3 {
		t.Fatalf("used=%d err=%v, want 3", used, err)
	}

	// a fitting one still passes
	remaining, err = ReserveQuota(ctx, db, "u1", "2026-08-27", 7, 10)
	if err != nil || remaining != 0 {
		t.Fatalf("exact fit: remaining=%d err=%v", remaining, err)
	}
}

func TestReserveQuota_CostLargerThanLimit(t *testing.T) {
	db := newRateLimitDB(t)
	if _, err := ReserveQuota(context.Background(), db, "u1", "2026-08-27", 5, 3); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestReserveQuota_InvalidCost(t *testing.T) {
	db := newRateLimitDB(t)
	if _, err := ReserveQuota(context.Background(), db, "u1", "2026-08-27", 0, 3); err == nil {
		t.Fatalf("expected error for cost <= 0")
	}
}

func TestGetQuotaUsed_MissingRowIsZero(t *testing.T) {
	db := newRateLimitDB(t)
	used, err := GetQuotaUsed(context.Background(), db, "nobody", "2026-08-27")
	if err != nil || used != 0 {
		t.Fatalf("used=%d err=%v, want 0", used, err)
	}
}

func TestReserveQuota_ConcurrentNeverOversubscribes(t *testing.T) {
	db := newRateLimitDB(t)
	ctx := context.Background()
	const limit = 10
	const workers = 25

	var wg sync.WaitGroup
	granted := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ReserveQuota(ctx, db, "u1", "2026-08-27", 1, limit); err == nil {
				granted <- 1
			}
		}()
	}
	wg.Wait()
	close(granted)

	total := 0
	for range granted {
		total++
	}
	if total > limit {
		t.Fatalf("oversubscribed: %d grants for limit %d", total, limit)
	}

	used, err := GetQuotaUsed(ctx, db, "u1", "2026-08-27")
	if err != nil {
		t.Fatalf("GetQuotaUsed: %v", err)
	}
	if used != total {
		t.Fatalf("counter drift: used=%d grants=%d", used, total)
	}
}
