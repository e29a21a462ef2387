package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/infrastructure/events"
)

// EventDrivenScheduler publishes schedule events around a Scheduler
type EventDrivenScheduler struct {
	scheduler  *Scheduler
	eventStore events.EventStore
	logger     *zap.Logger
}

var _ ScheduleService = (*EventDrivenScheduler)(nil)

func NewEventDrivenScheduler(scheduler *Scheduler, eventStore events.EventStore, logger *zap.Logger) *EventDrivenScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventDrivenScheduler{
		scheduler:  scheduler,
		eventStore: eventStore,
		logger:     logger,
	}
}

func (s *EventDrivenScheduler) Regenerate(ctx context.Context, weekStart time.Time) (*dto.ScheduleResult, error) {
	result, err := s.scheduler.Regenerate(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	week := result.Week
	s.publish(events.NewScheduleRegeneratedEvent(week))
	for _, day := range week.Days {
		if day.Status != entities.DayBlocked {
			continue
		}
		for _, shortage := range day.Shortages {
			s.publish(events.NewShortageIdentifiedEvent(week.WeekStart, day, shortage))
		}
	}
	for _, req := range result.Requisitions {
		s.publish(events.NewRequisitionSuggestedEvent(req))
	}

	return result, nil
}

func (s *EventDrivenScheduler) Approve(
	ctx context.Context,
	weekStart time.Time,
	opts ApproveOptions,
) (*dto.ApprovalResult, error) {
	result, err := s.scheduler.Approve(ctx, weekStart, opts)
	if err != nil {
		if errors.Is(err, entities.ErrNotAllReady) || errors.Is(err, entities.ErrReservationConflict) {
			s.publish(events.NewApprovalRejectedEvent(entities.DateOnly(weekStart), err))
		}
		return nil, err
	}

	s.publish(events.NewWeekApprovedEvent(result.Week))
	return result, nil
}

func (s *EventDrivenScheduler) Reopen(ctx context.Context, weekStart time.Time) (*dto.ReopenResult, error) {
	result, err := s.scheduler.Reopen(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	s.publish(events.NewWeekReopenedEvent(result.Week.WeekStart, result.Released))
	return result, nil
}

func (s *EventDrivenScheduler) GetSchedule(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error) {
	return s.scheduler.GetSchedule(ctx, weekStart)
}

func (s *EventDrivenScheduler) GetArrivals(ctx context.Context, weekStart time.Time) (*dto.ArrivalsResult, error) {
	return s.scheduler.GetArrivals(ctx, weekStart)
}

func (s *EventDrivenScheduler) publish(event events.Event) {
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.Type()),
			zap.Error(err),
		)
	}
}
