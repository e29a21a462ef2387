package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// WeekScheduleModel is one stored week
type WeekScheduleModel struct {
	WeekStart         string         `gorm:"primaryKey;size:10"`
	DailyCapacity     int64          `gorm:"not null"`
	CapacityOverrides datatypes.JSON `gorm:"not null"`
	Status            string         `gorm:"size:20;not null"`
	Unplanned         datatypes.JSON `gorm:"not null"`
	Reservations      datatypes.JSON `gorm:"not null"`
	GeneratedAt       time.Time      `gorm:"not null"`
	ApprovedAt        *time.Time     `gorm:"default:null"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (WeekScheduleModel) TableName() string { return "drum_week_schedules" }

// CampaignModel is one campaign of a stored week
type CampaignModel struct {
	ID           string         `gorm:"primaryKey;size:36"`
	WeekStart    string         `gorm:"size:10;not null;index"`
	Position     int            `gorm:"not null"`
	ProductID    string         `gorm:"size:64;not null"`
	PackagingID  string         `gorm:"size:64;not null"`
	PlannedDrums int64          `gorm:"not null"`
	Sequence     int            `gorm:"not null"`
	Status       string         `gorm:"size:20;not null"`
	JobLinks     datatypes.JSON `gorm:"not null"`
	Requirements datatypes.JSON `gorm:"not null"`
}

func (CampaignModel) TableName() string { return "drum_campaigns" }

// ScheduleDayModel is one campaign-day row of a stored week
type ScheduleDayModel struct {
	ID               string         `gorm:"primaryKey;size:36"`
	WeekStart        string         `gorm:"size:10;not null;index"`
	Position         int            `gorm:"not null"`
	Date             string         `gorm:"size:10;not null;index"`
	CampaignID       string         `gorm:"size:36;not null"`
	ProductID        string         `gorm:"size:64;not null"`
	PackagingID      string         `gorm:"size:64;not null"`
	PlannedDrums     int64          `gorm:"not null"`
	Status           string         `gorm:"size:20;not null"`
	BlockingReason   string         `gorm:"size:32;not null"`
	CapacityExceeded bool           `gorm:"not null"`
	Shortages        datatypes.JSON `gorm:"not null"`
}

func (ScheduleDayModel) TableName() string { return "drum_schedule_days" }

func toModels(week *entities.WeekSchedule) (*WeekScheduleModel, []CampaignModel, []ScheduleDayModel, error) {
	key := entities.WeekKey(week.WeekStart)

	wm := &WeekScheduleModel{
		WeekStart:     key,
		DailyCapacity: int64(week.DailyCapacity),
		Status:        string(week.Status),
		GeneratedAt:   week.GeneratedAt.UTC(),
	}
	if week.ApprovedAt != nil {
		approvedAt := week.ApprovedAt.UTC()
		wm.ApprovedAt = &approvedAt
	}
	var err error
	if wm.CapacityOverrides, err = encodeJSON(week.CapacityOverrides); err != nil {
		return nil, nil, nil, err
	}
	if wm.Unplanned, err = encodeJSON(week.Unplanned); err != nil {
		return nil, nil, nil, err
	}
	if wm.Reservations, err = encodeJSON(week.Reservations); err != nil {
		return nil, nil, nil, err
	}

	campaigns := make([]CampaignModel, 0, len(week.Campaigns))
	for i, c := range week.Campaigns {
		cm := CampaignModel{
			ID:           c.ID,
			WeekStart:    key,
			Position:     i,
			ProductID:    string(c.ProductID),
			PackagingID:  string(c.PackagingID),
			PlannedDrums: int64(c.PlannedDrums),
			Sequence:     c.Sequence,
			Status:       string(c.Status),
		}
		if cm.JobLinks, err = encodeJSON(c.JobLinks); err != nil {
			return nil, nil, nil, err
		}
		if cm.Requirements, err = encodeJSON(c.Requirements); err != nil {
			return nil, nil, nil, err
		}
		campaigns = append(campaigns, cm)
	}

	days := make([]ScheduleDayModel, 0, len(week.Days))
	for i, d := range week.Days {
		dm := ScheduleDayModel{
			ID:               d.ID,
			WeekStart:        key,
			Position:         i,
			Date:             entities.FormatDate(d.Date),
			CampaignID:       d.CampaignID,
			ProductID:        string(d.ProductID),
			PackagingID:      string(d.PackagingID),
			PlannedDrums:     int64(d.PlannedDrums),
			Status:           string(d.Status),
			BlockingReason:   string(d.BlockingReason),
			CapacityExceeded: d.CapacityExceeded,
		}
		if dm.Shortages, err = encodeJSON(d.Shortages); err != nil {
			return nil, nil, nil, err
		}
		days = append(days, dm)
	}

	return wm, campaigns, days, nil
}

func fromModels(wm *WeekScheduleModel, campaigns []CampaignModel, days []ScheduleDayModel) (*entities.WeekSchedule, error) {
	weekStart, err := entities.ParseDate(wm.WeekStart)
	if err != nil {
		return nil, err
	}

	week := &entities.WeekSchedule{
		WeekStart:     weekStart,
		DailyCapacity: entities.Drums(wm.DailyCapacity),
		Status:        entities.WeekStatus(wm.Status),
		Campaigns:     make([]entities.Campaign, 0, len(campaigns)),
		Days:          make([]entities.ScheduleDay, 0, len(days)),
		GeneratedAt:   wm.GeneratedAt.UTC(),
	}
	if wm.ApprovedAt != nil {
		approvedAt := wm.ApprovedAt.UTC()
		week.ApprovedAt = &approvedAt
	}
	if err := decodeJSON(wm.CapacityOverrides, &week.CapacityOverrides); err != nil {
		return nil, err
	}
	if err := decodeJSON(wm.Unplanned, &week.Unplanned); err != nil {
		return nil, err
	}
	if err := decodeJSON(wm.Reservations, &week.Reservations); err != nil {
		return nil, err
	}

	for _, cm := range campaigns {
		c := entities.Campaign{
			ID:           cm.ID,
			WeekStart:    weekStart,
			ProductID:    entities.ProductID(cm.ProductID),
			PackagingID:  entities.PackagingID(cm.PackagingID),
			PlannedDrums: entities.Drums(cm.PlannedDrums),
			Sequence:     cm.Sequence,
			Status:       entities.CampaignStatus(cm.Status),
		}
		if err := decodeJSON(cm.JobLinks, &c.JobLinks); err != nil {
			return nil, err
		}
		if err := decodeJSON(cm.Requirements, &c.Requirements); err != nil {
			return nil, err
		}
		week.Campaigns = append(week.Campaigns, c)
	}

	for _, dm := range days {
		date, err := entities.ParseDate(dm.Date)
		if err != nil {
			return nil, err
		}
		d := entities.ScheduleDay{
			ID:               dm.ID,
			Date:             date,
			CampaignID:       dm.CampaignID,
			ProductID:        entities.ProductID(dm.ProductID),
			PackagingID:      entities.PackagingID(dm.PackagingID),
			PlannedDrums:     entities.Drums(dm.PlannedDrums),
			Status:           entities.DayStatus(dm.Status),
			BlockingReason:   entities.BlockingReason(dm.BlockingReason),
			CapacityExceeded: dm.CapacityExceeded,
		}
		if err := decodeJSON(dm.Shortages, &d.Shortages); err != nil {
			return nil, err
		}
		week.Days = append(week.Days, d)
	}

	return week, nil
}

func encodeJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeJSON(raw datatypes.JSON, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}
