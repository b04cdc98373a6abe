// Package services – QuotaService
//
// This file implements the daily quota reservation. The quota is a shared
// budget across operation types (a chat turn and an artifact generation
// debit different costs from the same counter), keyed by (entity, UTC
// calendar day). Reservation happens before the costly downstream call and
// is never refunded on failure.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/repo"
)

// QuotaStatus is the read-only view of an entity's daily budget.
type QuotaStatus struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// QuotaService debits and reports the per-entity daily budget.
type QuotaService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// DailyLimit is the budget in units per entity per UTC day.
	DailyLimit int

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewQuotaService constructs a QuotaService with the given daily limit.
func NewQuotaService(db *gorm.DB, dailyLimit int) *QuotaService {
	return &QuotaService{DB: db, DailyLimit: dailyLimit, now: time.Now}
}

// Reserve atomically debits cost units from entityID's budget for today
// and returns the remaining units. Fails with ErrQuotaExceeded when the
// budget cannot cover the cost. Must succeed before the operation it pays
// for executes.
func (s *QuotaService) Reserve(ctx context.Context, entityID string, cost int) (int, error) {
	remaining, err := repo.ReserveQuota(ctx, s.DB, entityID, s.dayKey(), cost, s.DailyLimit)
	if err != nil {
		if errors.Is(err, repo.ErrLimitExceeded) {
			return 0, ErrQuotaExceeded
		}
		return 0, err
	}
	return remaining, nil
}

// Status recomputes the remaining budget and the next reset time without
// mutating state.
func (s *QuotaService) Status(ctx context.Context, entityID string) (*QuotaStatus, error) {
	used, err := repo.GetQuotaUsed(ctx, s.DB, entityID, s.dayKey())
	if err != nil {
		return nil, err
	}
	remaining := s.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		Limit:     s.DailyLimit,
		Used:      used,
		Remaining: remaining,
		ResetsAt:  nextUTCMidnight(s.now()),
	}, nil
}

// dayKey returns today's UTC calendar-day key. The counter resets
// implicitly when this key rolls over; no reset job exists.
func (s *QuotaService) dayKey() string {
	return s.now().UTC().Format("2006-01-02")
}

// nextUTCMidnight returns the instant the daily budget resets.
func nextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
