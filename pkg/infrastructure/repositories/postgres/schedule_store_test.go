package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *ScheduleStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "schedule.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store, err := NewScheduleStore(db, nil)
	require.NoError(t, err)
	return store
}

func sampleWeek(t *testing.T) *entities.WeekSchedule {
	t.Helper()
	campaign, err := entities.NewCampaign(monday, "P-ACID", "DRUM-200", 0)
	require.NoError(t, err)
	line, err := entities.NewJobOrderLine("JO-1", "P-ACID", "DRUM-200", 500, monday.AddDate(0, 0, 2), entities.JobOrderPending)
	require.NoError(t, err)
	require.NoError(t, campaign.AddJobLine(*line))
	campaign.Requirements = []entities.Requirement{{
		ItemID:       "RM-ACID",
		ItemType:     entities.ItemTypeRaw,
		UOM:          entities.UnitKG,
		RequiredQty:  decimal.RequireFromString("106250"),
		RequiredBy:   monday.AddDate(0, 0, 1),
		AvailableQty: decimal.RequireFromString("100000"),
		ShortageQty:  decimal.RequireFromString("6250"),
	}}

	date := monday.AddDate(0, 0, 1)
	return &entities.WeekSchedule{
		WeekStart:         monday,
		DailyCapacity:     600,
		CapacityOverrides: map[string]entities.Drums{"2025-01-11": 0},
		Status:            entities.WeekBlocked,
		Campaigns:         []entities.Campaign{*campaign},
		Days: []entities.ScheduleDay{{
			ID:             entities.ScheduleDayID(campaign.ID, date),
			Date:           date,
			CampaignID:     campaign.ID,
			ProductID:      campaign.ProductID,
			PackagingID:    campaign.PackagingID,
			PlannedDrums:   campaign.PlannedDrums,
			Status:         entities.DayBlocked,
			BlockingReason: entities.ReasonMaterialShortage,
			Shortages:      entities.ShortageDetails(campaign.Requirements),
		}},
		Unplanned: []entities.UnplannedCampaign{{
			CampaignID:  entities.CampaignID(monday, "P-NOBOM", "DRUM-200"),
			ProductID:   "P-NOBOM",
			PackagingID: "DRUM-200",
			Drums:       50,
			JobNumbers:  []string{"JO-9"},
			Reason:      "BOM_MISSING: product P-NOBOM",
		}},
		GeneratedAt: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC),
	}
}

func TestScheduleStore_SaveAndGetWeek(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.GetWeek(ctx, monday)
	require.ErrorIs(t, err, entities.ErrWeekNotFound)

	week := sampleWeek(t)
	require.NoError(t, store.SaveWeek(ctx, week))

	got, err := store.GetWeek(ctx, monday)
	require.NoError(t, err)
	if diff := cmp.Diff(week, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("stored week differs (-saved +loaded):\n%s", diff)
	}
}

func TestScheduleStore_SaveReplacesWeek(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	week := sampleWeek(t)
	require.NoError(t, store.SaveWeek(ctx, week))

	approvedAt := time.Date(2025, 1, 4, 8, 30, 0, 0, time.UTC)
	week.Days = nil
	week.Campaigns = nil
	week.Status = entities.WeekApproved
	week.ApprovedAt = &approvedAt
	week.Reservations = []entities.Reservation{{
		ID:         "res-1",
		ItemID:     "RM-ACID",
		Quantity:   decimal.NewFromInt(10),
		RefType:    entities.ReservationRefScheduleDay,
		RefID:      "day-1",
		CampaignID: "c-1",
		CreatedAt:  approvedAt,
	}}
	require.NoError(t, store.SaveWeek(ctx, week))

	got, err := store.GetWeek(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, got.Status)
	assert.Empty(t, got.Days)
	assert.Empty(t, got.Campaigns)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(approvedAt))
	require.Len(t, got.Reservations, 1)
	assert.True(t, got.Reservations[0].Quantity.Equal(decimal.NewFromInt(10)))

	var rows int64
	require.NoError(t, store.db.Model(&ScheduleDayModel{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestScheduleStore_WeeksAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveWeek(ctx, sampleWeek(t)))
	next := &entities.WeekSchedule{
		WeekStart:     monday.AddDate(0, 0, 7),
		DailyCapacity: 600,
		Status:        entities.WeekReady,
		GeneratedAt:   time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveWeek(ctx, next))

	first, err := store.GetWeek(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, first.Days, 1)

	second, err := store.GetWeek(ctx, next.WeekStart)
	require.NoError(t, err)
	assert.Empty(t, second.Days)
	assert.Equal(t, entities.WeekReady, second.Status)
}

func TestScheduleStore_GetWeekReadsInOneTransaction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveWeek(ctx, sampleWeek(t)))

	var tables []string
	var outside []string
	err := store.db.Callback().Query().After("gorm:query").Register("test:record_tx", func(db *gorm.DB) {
		tables = append(tables, db.Statement.Table)
		if _, ok := db.Statement.ConnPool.(*sql.Tx); !ok {
			outside = append(outside, db.Statement.Table)
		}
	})
	require.NoError(t, err)

	_, err = store.GetWeek(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"drum_week_schedules", "drum_campaigns", "drum_schedule_days"}, tables)
	assert.Empty(t, outside)
}

func TestReadTxOptions(t *testing.T) {
	tests := []struct {
		dialect string
		want    *sql.TxOptions
	}{
		{"postgres", &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}},
		{"sqlite", nil},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			assert.Equal(t, tt.want, readTxOptions(tt.dialect))
		})
	}
}
