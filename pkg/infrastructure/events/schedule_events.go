package events

import (
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

const (
	ScheduleRegeneratedEvent  = "schedule.regenerated"
	ShortageIdentifiedEvent   = "shortage.identified"
	RequisitionSuggestedEvent = "requisition.suggested"
	WeekApprovedEvent         = "week.approved"
	ApprovalRejectedEvent     = "approval.rejected"
	WeekReopenedEvent         = "week.reopened"
)

type ScheduleRegenerated struct {
	WeekStart    string              `json:"week_start"`
	Status       entities.WeekStatus `json:"status"`
	Ready        int                 `json:"ready"`
	Blocked      int                 `json:"blocked"`
	OverCapacity int                 `json:"over_capacity"`
	Unplanned    int                 `json:"unplanned"`
}

type ShortageIdentified struct {
	WeekStart  string                  `json:"week_start"`
	Date       time.Time               `json:"date"`
	CampaignID string                  `json:"campaign_id"`
	Shortage   entities.ShortageDetail `json:"shortage"`
}

type RequisitionSuggested struct {
	Requisition entities.ProcurementRequisition `json:"requisition"`
}

type WeekApproved struct {
	WeekStart    string `json:"week_start"`
	Reservations int    `json:"reservations"`
}

type ApprovalRejected struct {
	WeekStart string `json:"week_start"`
	Reason    string `json:"reason"`
}

type WeekReopened struct {
	WeekStart string `json:"week_start"`
	Released  int    `json:"released"`
}

// WeekStream is the stream all events of one week are appended to
func WeekStream(weekStart time.Time) string {
	return "week-" + entities.WeekKey(weekStart)
}

func NewScheduleRegeneratedEvent(week *entities.WeekSchedule) Event {
	ready, blocked, over := week.Counts()
	return NewEvent(ScheduleRegeneratedEvent, WeekStream(week.WeekStart), ScheduleRegenerated{
		WeekStart:    entities.WeekKey(week.WeekStart),
		Status:       week.Status,
		Ready:        ready,
		Blocked:      blocked,
		OverCapacity: over,
		Unplanned:    len(week.Unplanned),
	})
}

func NewShortageIdentifiedEvent(weekStart time.Time, day entities.ScheduleDay, shortage entities.ShortageDetail) Event {
	return NewEvent(ShortageIdentifiedEvent, WeekStream(weekStart), ShortageIdentified{
		WeekStart:  entities.WeekKey(weekStart),
		Date:       day.Date,
		CampaignID: day.CampaignID,
		Shortage:   shortage,
	})
}

func NewRequisitionSuggestedEvent(req entities.ProcurementRequisition) Event {
	return NewEvent(RequisitionSuggestedEvent, WeekStream(req.WeekStart), RequisitionSuggested{Requisition: req})
}

func NewWeekApprovedEvent(week *entities.WeekSchedule) Event {
	return NewEvent(WeekApprovedEvent, WeekStream(week.WeekStart), WeekApproved{
		WeekStart:    entities.WeekKey(week.WeekStart),
		Reservations: len(week.Reservations),
	})
}

func NewApprovalRejectedEvent(weekStart time.Time, reason error) Event {
	return NewEvent(ApprovalRejectedEvent, WeekStream(weekStart), ApprovalRejected{
		WeekStart: entities.WeekKey(weekStart),
		Reason:    reason.Error(),
	})
}

func NewWeekReopenedEvent(weekStart time.Time, released int) Event {
	return NewEvent(WeekReopenedEvent, WeekStream(weekStart), WeekReopened{
		WeekStart: entities.WeekKey(weekStart),
		Released:  released,
	})
}
