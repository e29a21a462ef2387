package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekSchedule_StatusAndReadiness(t *testing.T) {
	week, err := NewWeekSchedule(testWeek, DefaultDailyCapacity)
	require.NoError(t, err)

	week.Days = []ScheduleDay{
		{Date: testWeek, CampaignID: "c1", PlannedDrums: 300, Status: DayReady, BlockingReason: ReasonNone},
		{Date: testWeek, CampaignID: "c2", PlannedDrums: 200, Status: DayBlocked, BlockingReason: ReasonMaterialShortage},
		{Date: WeekEnd(testWeek), CampaignID: "c3", PlannedDrums: 700, Status: DayOverCapacity,
			BlockingReason: ReasonCapacityExceeded, CapacityExceeded: true},
	}
	week.RefreshStatus()

	assert.Equal(t, WeekBlocked, week.Status)
	assert.Equal(t, Drums(500), week.PlannedOn(testWeek))
	assert.Len(t, week.NotReadyDays(false), 2)

	refs := week.NotReadyDays(true)
	require.Len(t, refs, 1)
	assert.Equal(t, "c2", refs[0].CampaignID)

	ready, blocked, over := week.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{ready, blocked, over})
}

func TestWeekSchedule_CloneIsDeep(t *testing.T) {
	week, err := NewWeekSchedule(testWeek, DefaultDailyCapacity)
	require.NoError(t, err)

	week.Campaigns = append(week.Campaigns, Campaign{
		ID:           "c1",
		Requirements: []Requirement{{ItemID: "RM-A", RequiredQty: decimal.NewFromInt(5)}},
	})
	week.Days = append(week.Days, ScheduleDay{ID: "d1", Shortages: []ShortageDetail{{ItemID: "RM-A"}}})
	week.CapacityOverrides = map[string]Drums{"2025-01-07": 300}

	clone := week.Clone()
	clone.Campaigns[0].Requirements[0].ItemID = "RM-Z"
	clone.Days[0].Shortages[0].ItemID = "RM-Z"
	clone.CapacityOverrides["2025-01-07"] = 1

	assert.Equal(t, ItemID("RM-A"), week.Campaigns[0].Requirements[0].ItemID)
	assert.Equal(t, ItemID("RM-A"), week.Days[0].Shortages[0].ItemID)
	assert.Equal(t, Drums(300), week.CapacityOverrides["2025-01-07"])
}

func TestNewWeekSchedule_RejectsNonMonday(t *testing.T) {
	_, err := NewWeekSchedule(testWeek.AddDate(0, 0, 1), DefaultDailyCapacity)
	assert.True(t, errors.Is(err, ErrInvalidDate))

	_, err = NewWeekSchedule(testWeek, 0)
	assert.Error(t, err)
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	notReady := error(&NotAllReadyError{WeekStart: testWeek, Days: []DayRef{{Date: testWeek, Status: DayBlocked}}})
	assert.ErrorIs(t, notReady, ErrNotAllReady)

	cause := errors.New("stock moved")
	conflict := error(&ReservationConflictError{
		WeekStart:  testWeek,
		CampaignID: "c1",
		ItemID:     "RM-A",
		Quantity:   decimal.NewFromInt(10),
		Cause:      cause,
	})
	assert.ErrorIs(t, conflict, ErrReservationConflict)
	assert.ErrorIs(t, conflict, cause)
	assert.Contains(t, conflict.Error(), "RM-A")

	var target *ReservationConflictError
	require.ErrorAs(t, conflict, &target)
	assert.Equal(t, "c1", target.CampaignID)
}
