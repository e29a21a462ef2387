package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// ScheduleRepository keeps week schedules in memory. Weeks are copied on the
// way in and out so callers never share state with the store.
type ScheduleRepository struct {
	mu    sync.RWMutex
	weeks map[string]*entities.WeekSchedule
	saves int
}

// NewScheduleRepository creates a new in-memory schedule repository
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{weeks: make(map[string]*entities.WeekSchedule)}
}

// Verify interface compliance
var _ repositories.ScheduleRepository = (*ScheduleRepository)(nil)

// GetWeek returns a copy of the stored week
func (r *ScheduleRepository) GetWeek(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	week, ok := r.weeks[entities.WeekKey(weekStart)]
	if !ok {
		return nil, fmt.Errorf("week %s: %w", entities.WeekKey(weekStart), entities.ErrWeekNotFound)
	}
	return week.Clone(), nil
}

// SaveWeek replaces the stored week
func (r *ScheduleRepository) SaveWeek(ctx context.Context, week *entities.WeekSchedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if week == nil {
		return fmt.Errorf("week cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.weeks[entities.WeekKey(week.WeekStart)] = week.Clone()
	r.saves++
	return nil
}

// Saves returns how many times a week was written
func (r *ScheduleRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
