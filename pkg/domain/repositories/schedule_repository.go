package repositories

import (
	"context"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ScheduleRepository persists week schedules
type ScheduleRepository interface {
	// GetWeek returns entities.ErrWeekNotFound when nothing is stored for the week
	GetWeek(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error)
	// SaveWeek replaces the stored week as a whole
	SaveWeek(ctx context.Context, week *entities.WeekSchedule) error
}
