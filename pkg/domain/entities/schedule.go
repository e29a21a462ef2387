package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultDailyCapacity is the plant's drum filling capacity per day
const DefaultDailyCapacity Drums = 600

// DayStatus is the readiness of one scheduled campaign day
type DayStatus string

const (
	DayReady        DayStatus = "READY"
	DayBlocked      DayStatus = "BLOCKED"
	DayOverCapacity DayStatus = "OVER_CAPACITY"
	DayReserved     DayStatus = "RESERVED"
)

// BlockingReason explains why a day is not READY
type BlockingReason string

const (
	ReasonNone             BlockingReason = "NONE"
	ReasonMaterialShortage BlockingReason = "MATERIAL_SHORTAGE"
	ReasonCapacityExceeded BlockingReason = "CAPACITY_EXCEEDED"
	ReasonOther            BlockingReason = "OTHER"
)

// WeekStatus is the lifecycle state of a week schedule
type WeekStatus string

const (
	WeekDraft    WeekStatus = "DRAFT"
	WeekReady    WeekStatus = "READY"
	WeekBlocked  WeekStatus = "BLOCKED"
	WeekApproved WeekStatus = "APPROVED"
)

// ScheduleDay is one campaign placed on one production date
type ScheduleDay struct {
	ID               string           `json:"id"`
	Date             time.Time        `json:"date"`
	CampaignID       string           `json:"campaign_id"`
	ProductID        ProductID        `json:"product_id"`
	PackagingID      PackagingID      `json:"packaging_id"`
	PlannedDrums     Drums            `json:"planned_drums"`
	Status           DayStatus        `json:"status"`
	BlockingReason   BlockingReason   `json:"blocking_reason"`
	CapacityExceeded bool             `json:"capacity_exceeded"`
	Shortages        []ShortageDetail `json:"shortages"`
}

// ScheduleDayID derives the stable ID of a campaign's production day
func ScheduleDayID(campaignID string, date time.Time) string {
	name := fmt.Sprintf("day|%s|%s", campaignID, FormatDate(date))
	return uuid.NewSHA1(scheduleNamespace, []byte(name)).String()
}

// UnplannedCampaign is demand that could not be placed for lack of master data
type UnplannedCampaign struct {
	CampaignID  string      `json:"campaign_id"`
	ProductID   ProductID   `json:"product_id"`
	PackagingID PackagingID `json:"packaging_id"`
	Drums       Drums       `json:"drums"`
	JobNumbers  []string    `json:"job_numbers"`
	Reason      string      `json:"reason"`
}

// WeekSchedule is the aggregate root of one production week
type WeekSchedule struct {
	WeekStart         time.Time           `json:"week_start"`
	DailyCapacity     Drums               `json:"daily_capacity"`
	CapacityOverrides map[string]Drums    `json:"capacity_overrides,omitempty"`
	Status            WeekStatus          `json:"status"`
	Campaigns         []Campaign          `json:"campaigns"`
	Days              []ScheduleDay       `json:"days"`
	Unplanned         []UnplannedCampaign `json:"unplanned"`
	Reservations      []Reservation       `json:"reservations,omitempty"`
	GeneratedAt       time.Time           `json:"generated_at"`
	ApprovedAt        *time.Time          `json:"approved_at,omitempty"`
}

// NewWeekSchedule creates an empty draft week
func NewWeekSchedule(weekStart time.Time, dailyCapacity Drums) (*WeekSchedule, error) {
	if err := ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	if dailyCapacity <= 0 {
		return nil, fmt.Errorf("daily capacity must be positive, got %d", dailyCapacity)
	}

	return &WeekSchedule{
		WeekStart:     weekStart,
		DailyCapacity: dailyCapacity,
		Status:        WeekDraft,
		Campaigns:     make([]Campaign, 0),
		Days:          make([]ScheduleDay, 0),
		Unplanned:     make([]UnplannedCampaign, 0),
	}, nil
}

// IsApproved reports whether the week has been committed
func (w *WeekSchedule) IsApproved() bool {
	return w.Status == WeekApproved
}

// CampaignByID finds a campaign of the week
func (w *WeekSchedule) CampaignByID(id string) *Campaign {
	for i := range w.Campaigns {
		if w.Campaigns[i].ID == id {
			return &w.Campaigns[i]
		}
	}
	return nil
}

// PlannedOn sums the drums planned on a date
func (w *WeekSchedule) PlannedOn(date time.Time) Drums {
	var total Drums
	for _, d := range w.Days {
		if d.Date.Equal(date) {
			total += d.PlannedDrums
		}
	}
	return total
}

// NotReadyDays lists the days that prevent approval
func (w *WeekSchedule) NotReadyDays(acceptOverCapacity bool) []DayRef {
	refs := make([]DayRef, 0)
	for _, d := range w.Days {
		if d.Status == DayReady {
			continue
		}
		if d.Status == DayOverCapacity && acceptOverCapacity {
			continue
		}
		refs = append(refs, DayRef{
			Date:           d.Date,
			CampaignID:     d.CampaignID,
			Status:         d.Status,
			BlockingReason: d.BlockingReason,
		})
	}
	return refs
}

// Counts tallies days by status
func (w *WeekSchedule) Counts() (ready, blocked, overCapacity int) {
	for _, d := range w.Days {
		switch d.Status {
		case DayReady, DayReserved:
			ready++
		case DayBlocked:
			blocked++
		case DayOverCapacity:
			overCapacity++
		}
	}
	return ready, blocked, overCapacity
}

// RefreshStatus derives the week status from its days
func (w *WeekSchedule) RefreshStatus() {
	if w.Status == WeekApproved {
		return
	}
	_, blocked, over := w.Counts()
	if blocked+over > 0 {
		w.Status = WeekBlocked
		return
	}
	w.Status = WeekReady
}

// Clone returns a deep copy of the week
func (w *WeekSchedule) Clone() *WeekSchedule {
	out := *w

	if w.CapacityOverrides != nil {
		out.CapacityOverrides = make(map[string]Drums, len(w.CapacityOverrides))
		for k, v := range w.CapacityOverrides {
			out.CapacityOverrides[k] = v
		}
	}

	out.Campaigns = make([]Campaign, len(w.Campaigns))
	for i := range w.Campaigns {
		out.Campaigns[i] = w.Campaigns[i].Clone()
	}

	out.Days = make([]ScheduleDay, len(w.Days))
	for i, d := range w.Days {
		d.Shortages = append(make([]ShortageDetail, 0, len(d.Shortages)), d.Shortages...)
		out.Days[i] = d
	}

	out.Unplanned = make([]UnplannedCampaign, len(w.Unplanned))
	for i, u := range w.Unplanned {
		u.JobNumbers = append(make([]string, 0, len(u.JobNumbers)), u.JobNumbers...)
		out.Unplanned[i] = u
	}

	if w.Reservations != nil {
		out.Reservations = append(make([]Reservation, 0, len(w.Reservations)), w.Reservations...)
	}
	if w.ApprovedAt != nil {
		at := *w.ApprovedAt
		out.ApprovedAt = &at
	}
	return &out
}
