package scheduler

import (
	"context"
	"time"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// WeekLocker serializes mutations of the same week
type WeekLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ApproveOptions tunes approval
type ApproveOptions struct {
	// AcceptOverCapacity lets OVER_CAPACITY days through approval
	AcceptOverCapacity bool
}

// ScheduleService is the set of operations exposed over HTTP and the CLI
type ScheduleService interface {
	Regenerate(ctx context.Context, weekStart time.Time) (*dto.ScheduleResult, error)
	Approve(ctx context.Context, weekStart time.Time, opts ApproveOptions) (*dto.ApprovalResult, error)
	Reopen(ctx context.Context, weekStart time.Time) (*dto.ReopenResult, error)
	GetSchedule(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error)
	GetArrivals(ctx context.Context, weekStart time.Time) (*dto.ArrivalsResult, error)
}
