package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	fixtures "github.com/vsinha/drumsched/pkg/infrastructure/testing"
)

var (
	acidCampaign    = entities.CampaignID(fixtures.PlantWeek, "P-ACID", "DRUM-200")
	causticCampaign = entities.CampaignID(fixtures.PlantWeek, "P-CAUSTIC", "DRUM-200")
	solventCampaign = entities.CampaignID(fixtures.PlantWeek, "P-SOLVENT", "JERRY-25")
)

type failingProcurement struct{}

func (failingProcurement) SubmitRequisition(ctx context.Context, req *entities.ProcurementRequisition) (string, error) {
	return "", errors.New("procurement service down")
}

type failingPurchaseOrders struct{}

func (failingPurchaseOrders) GetOpenLines(ctx context.Context, itemID entities.ItemID, promisedBy time.Time) ([]entities.OpenPOLine, error) {
	return nil, errors.New("purchasing database unreachable")
}

func TestScheduler_RegeneratePlantWeek(t *testing.T) {
	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{})

	result, err := s.Regenerate(context.Background(), scenario.WeekStart)
	require.NoError(t, err)

	week := result.Week
	assert.Equal(t, entities.WeekBlocked, week.Status)
	assert.Equal(t, 2, result.ReadyCount)
	assert.Equal(t, 1, result.BlockedCount)
	assert.Equal(t, 0, result.OverCapacityCount)

	require.Len(t, week.Days, 3)
	expected := []struct {
		campaign string
		date     time.Time
		drums    entities.Drums
		status   entities.DayStatus
	}{
		{solventCampaign, scenario.Day(0), 150, entities.DayReady},
		{causticCampaign, scenario.Day(0), 400, entities.DayReady},
		{acidCampaign, scenario.Day(1), 500, entities.DayBlocked},
	}
	for i, want := range expected {
		day := week.Days[i]
		assert.Equal(t, want.campaign, day.CampaignID, "day %d", i)
		assert.True(t, day.Date.Equal(want.date), "day %d on %s", i, entities.FormatDate(day.Date))
		assert.Equal(t, want.drums, day.PlannedDrums, "day %d", i)
		assert.Equal(t, want.status, day.Status, "day %d", i)
		assert.False(t, day.CapacityExceeded, "day %d", i)
	}

	blocked := week.Days[2]
	assert.Equal(t, entities.ReasonMaterialShortage, blocked.BlockingReason)
	require.Len(t, blocked.Shortages, 1)
	assert.Equal(t, entities.ItemID("RM-ACID"), blocked.Shortages[0].ItemID)
	assert.True(t, blocked.Shortages[0].Shortage.Equal(decimal.NewFromInt(6250)), "shortage %s", blocked.Shortages[0].Shortage)

	require.Len(t, result.Unplanned, 1)
	assert.Equal(t, entities.ProductID("P-NOBOM"), result.Unplanned[0].ProductID)
	assert.Contains(t, result.Unplanned[0].Reason, "BOM_MISSING")

	require.Len(t, result.Requisitions, 1)
	req := result.Requisitions[0]
	assert.Equal(t, "REQ-00001", req.ID)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, entities.ItemID("RM-ACID"), req.Lines[0].ItemID)
	assert.True(t, req.Lines[0].Quantity.Equal(decimal.NewFromInt(6250)))
	assert.True(t, req.Lines[0].RequiredBy.Equal(scenario.Day(1)))
	assert.Equal(t, []string{acidCampaign}, req.Lines[0].CampaignIDs)

	stored, err := s.GetSchedule(context.Background(), scenario.WeekStart)
	require.NoError(t, err)
	if diff := cmp.Diff(week, stored); diff != "" {
		t.Errorf("stored week differs (-returned +stored):\n%s", diff)
	}
}

func TestScheduler_ShortageNetOfArrivals(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.NewScenario(fixtures.PlantWeek)
	scenario.AddProduct("P-X", "1", map[entities.ItemID]string{"RM-X": "1"}, "RM-X")
	scenario.AddPackaging("PAIL-10", "10", "10")
	scenario.AddJob("JO-1", "P-X", "PAIL-10", 10, scenario.Day(0), entities.JobOrderPending)
	scenario.SetStock("RM-X", 40)
	scenario.AddPO("PO-50", entities.PurchaseOrderSent, "RM-X", 50, scenario.Day(0))
	s := newTestScheduler(t, dependencies(scenario), Config{})

	result, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekBlocked, result.Week.Status)

	require.Len(t, result.Week.Days, 1)
	day := result.Week.Days[0]
	assert.Equal(t, entities.DayBlocked, day.Status)
	assert.Equal(t, entities.ReasonMaterialShortage, day.BlockingReason)
	require.Len(t, day.Shortages, 1)
	assert.Equal(t, entities.ItemID("RM-X"), day.Shortages[0].ItemID)
	assert.True(t, day.Shortages[0].Required.Equal(decimal.NewFromInt(100)), "required %s", day.Shortages[0].Required)
	assert.True(t, day.Shortages[0].Available.Equal(decimal.NewFromInt(90)), "available %s", day.Shortages[0].Available)
	assert.True(t, day.Shortages[0].Shortage.Equal(decimal.NewFromInt(10)), "shortage %s", day.Shortages[0].Shortage)

	require.Len(t, result.Requisitions, 1)
	require.Len(t, result.Requisitions[0].Lines, 1)
	line := result.Requisitions[0].Lines[0]
	assert.Equal(t, entities.ItemID("RM-X"), line.ItemID)
	assert.Equal(t, entities.ItemTypeRaw, line.ItemType)
	assert.True(t, line.Quantity.Equal(decimal.NewFromInt(10)), "quantity %s", line.Quantity)
	assert.True(t, line.RequiredBy.Equal(scenario.Day(0)))
}

func TestScheduler_RegenerateIsDeterministic(t *testing.T) {
	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{})

	first, err := s.Regenerate(context.Background(), scenario.WeekStart)
	require.NoError(t, err)
	second, err := s.Regenerate(context.Background(), scenario.WeekStart)
	require.NoError(t, err)

	firstDays, err := json.Marshal(first.Week.Days)
	require.NoError(t, err)
	secondDays, err := json.Marshal(second.Week.Days)
	require.NoError(t, err)
	assert.Equal(t, string(firstDays), string(secondDays))

	if diff := cmp.Diff(first.Week, second.Week); diff != "" {
		t.Errorf("regeneration not deterministic (-first +second):\n%s", diff)
	}

	// each regeneration proposes a fresh requisition
	assert.Len(t, scenario.Procurement.Requisitions(), 2)
}

func TestScheduler_ApprovalLifecycle(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{})

	_, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)

	// blocked Tuesday prevents approval
	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.ErrorIs(t, err, entities.ErrNotAllReady)
	var notReady *entities.NotAllReadyError
	require.ErrorAs(t, err, &notReady)
	require.Len(t, notReady.Days, 1)
	assert.Equal(t, acidCampaign, notReady.Days[0].CampaignID)

	// acid arrives; Tuesday's drums come partly from PO-9001
	scenario.SetStock("RM-ACID", 110000)
	result, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekReady, result.Week.Status)
	assert.Empty(t, result.Requisitions)

	// caps taken by another order after the plan was made: Monday's caustic
	// still gets its 400, Tuesday's acid is 400 short
	scenario.SetStock("PK-CAP", 500)
	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.ErrorIs(t, err, entities.ErrReservationConflict)
	assert.ErrorIs(t, err, entities.ErrInsufficientStock)
	var conflict *entities.ReservationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, acidCampaign, conflict.CampaignID)
	assert.Equal(t, entities.ItemID("PK-CAP"), conflict.ItemID)
	assert.True(t, conflict.WeekStart.Equal(scenario.WeekStart))
	assert.Empty(t, scenario.Inventory.Reservations())

	unchanged, err := s.GetSchedule(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekReady, unchanged.Status)

	scenario.SetStock("PK-CAP", 2000)
	approval, err := s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, approval.Week.Status)
	assert.Len(t, approval.Reservations, 11)
	assert.Len(t, scenario.Inventory.Reservations(), 10)
	for _, day := range approval.Week.Days {
		assert.Equal(t, entities.DayReserved, day.Status)
	}
	require.NotNil(t, approval.Week.ApprovedAt)
	assert.True(t, approval.Week.ApprovedAt.Equal(fixedNow))

	holds := make([]entities.Reservation, 0)
	for _, res := range approval.Reservations {
		if res.IsHold() {
			holds = append(holds, res)
		}
	}
	require.Len(t, holds, 1)
	assert.Equal(t, "PO-9001", holds[0].PONumber)
	assert.Equal(t, entities.ItemID("PK-DRUM200"), holds[0].ItemID)
	assert.True(t, holds[0].Quantity.Equal(decimal.NewFromInt(300)), "hold %s", holds[0].Quantity)
	assert.Equal(t, acidCampaign, holds[0].CampaignID)

	_, err = s.Regenerate(ctx, scenario.WeekStart)
	assert.ErrorIs(t, err, entities.ErrAlreadyApproved)
	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	assert.ErrorIs(t, err, entities.ErrAlreadyApproved)

	reopened, err := s.Reopen(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, 11, reopened.Released)
	assert.Equal(t, entities.WeekDraft, reopened.Week.Status)
	assert.Empty(t, reopened.Week.Reservations)
	assert.Empty(t, scenario.Inventory.Reservations())
	for _, day := range reopened.Week.Days {
		assert.Equal(t, entities.DayReady, day.Status)
	}

	_, err = s.Reopen(ctx, scenario.WeekStart)
	assert.ErrorIs(t, err, entities.ErrNotApproved)

	_, err = s.Regenerate(ctx, scenario.WeekStart)
	assert.NoError(t, err)
}

func TestScheduler_SequentialApprovalCompensates(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	scenario.SetStock("RM-ACID", 110000)

	deps := dependencies(scenario)
	deps.Inventory = sequentialInventory{InventoryRepository: scenario.Inventory, refuse: "PK-CAP"}
	s := newTestScheduler(t, deps, Config{})

	_, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)

	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.ErrorIs(t, err, entities.ErrReservationConflict)
	assert.ErrorIs(t, err, entities.ErrInsufficientStock)

	var conflict *entities.ReservationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, causticCampaign, conflict.CampaignID)
	assert.Equal(t, entities.ItemID("PK-CAP"), conflict.ItemID)
	assert.Empty(t, scenario.Inventory.Reservations(), "applied reservations must be released")

	week, err := s.GetSchedule(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekReady, week.Status)
}

func TestScheduler_ApproveHoldsInTimeArrivals(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.NewScenario(fixtures.PlantWeek)
	scenario.AddProduct("P-X", "1", map[entities.ItemID]string{"RM-X": "1"}, "RM-X")
	scenario.AddPackaging("PAIL-10", "10", "10")
	scenario.AddJob("JO-1", "P-X", "PAIL-10", 10, scenario.Day(0), entities.JobOrderPending)
	scenario.SetStock("RM-X", 40)
	scenario.AddPO("PO-60", entities.PurchaseOrderSent, "RM-X", 60, scenario.Day(-1))
	s := newTestScheduler(t, dependencies(scenario), Config{})

	result, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekReady, result.Week.Status)
	require.Len(t, result.Week.Days, 1)
	assert.Equal(t, entities.DayReady, result.Week.Days[0].Status)

	approval, err := s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, approval.Week.Status)
	require.Len(t, approval.Reservations, 2)

	stock, hold := approval.Reservations[0], approval.Reservations[1]
	assert.Equal(t, entities.ReservationKindStock, stock.Kind)
	assert.True(t, stock.Quantity.Equal(decimal.NewFromInt(40)), "stock %s", stock.Quantity)
	assert.True(t, hold.IsHold())
	assert.Equal(t, "PO-60", hold.PONumber)
	assert.True(t, hold.Quantity.Equal(decimal.NewFromInt(60)), "hold %s", hold.Quantity)
	assert.Len(t, scenario.Inventory.Reservations(), 1)

	reopened, err := s.Reopen(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Released)
	assert.Empty(t, scenario.Inventory.Reservations())
}

func TestScheduler_ReopenKeepsUnreleasedReservations(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	scenario.SetStock("RM-ACID", 110000)

	inventory := &flakyRelease{InventoryRepository: scenario.Inventory, failOn: 2}
	deps := dependencies(scenario)
	deps.Inventory = inventory
	s := newTestScheduler(t, deps, Config{})

	_, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	approval, err := s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.NoError(t, err)
	require.Len(t, approval.Reservations, 11)

	_, err = s.Reopen(ctx, scenario.WeekStart)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 11 reservations could not be released")

	live := scenario.Inventory.Reservations()
	require.Len(t, live, 1)

	week, err := s.GetSchedule(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, week.Status)
	stockIDs := make([]string, 0)
	holds := 0
	for _, res := range week.Reservations {
		if res.IsHold() {
			holds++
			continue
		}
		stockIDs = append(stockIDs, res.ID)
	}
	assert.Equal(t, []string{live[0].ID}, stockIDs)
	assert.Equal(t, 1, holds)

	// inventory is back; the retry releases what is left
	reopened, err := s.Reopen(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Released)
	assert.Equal(t, entities.WeekDraft, reopened.Week.Status)
	assert.Empty(t, scenario.Inventory.Reservations())
}

func TestScheduler_OverCapacity(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.NewScenario(fixtures.PlantWeek)
	scenario.AddProduct("P-ACID", "1", map[entities.ItemID]string{"RM-ACID": "1"}, "RM-ACID")
	scenario.AddPackaging("DRUM-200", "200", "0")
	scenario.AddPackaging("IBC-1000", "1000", "0")
	scenario.AddJob("JO-1", "P-ACID", "DRUM-200", 500, scenario.Day(0), entities.JobOrderPending)
	scenario.AddJob("JO-2", "P-ACID", "IBC-1000", 150, scenario.Day(1), entities.JobOrderPending)
	scenario.SetStock("RM-ACID", 1000000)

	// only Monday and Sunday are open, with 600 drums each
	overrides := map[string]entities.Drums{}
	for i := 1; i < 6; i++ {
		overrides[entities.FormatDate(scenario.Day(i))] = 0
	}
	overrides[entities.FormatDate(scenario.Day(6))] = 100
	s := newTestScheduler(t, dependencies(scenario), Config{CapacityOverrides: overrides})

	result, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	require.Len(t, result.Week.Days, 2)
	assert.Equal(t, 1, result.OverCapacityCount)
	assert.Equal(t, entities.WeekBlocked, result.Week.Status)

	sunday := result.Week.Days[1]
	assert.Equal(t, entities.DayOverCapacity, sunday.Status)
	assert.Equal(t, entities.ReasonCapacityExceeded, sunday.BlockingReason)
	assert.True(t, sunday.CapacityExceeded)
	assert.NotEmpty(t, result.Issues)

	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.ErrorIs(t, err, entities.ErrNotAllReady)

	approval, err := s.Approve(ctx, scenario.WeekStart, ApproveOptions{AcceptOverCapacity: true})
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, approval.Week.Status)

	reopened, err := s.Reopen(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, entities.DayOverCapacity, reopened.Week.Days[1].Status)
}

func TestScheduler_DegradedCollaborator(t *testing.T) {
	scenario := fixtures.BuildPlantScenario()
	deps := dependencies(scenario)
	deps.PurchaseOrders = failingPurchaseOrders{}
	s := newTestScheduler(t, deps, Config{})

	result, err := s.Regenerate(context.Background(), scenario.WeekStart)
	require.NoError(t, err)

	assert.Equal(t, 3, result.BlockedCount)
	assert.NotEmpty(t, result.Issues)
	assert.Empty(t, result.Requisitions, "unconfirmed shortages are not requisitioned")
	for _, day := range result.Week.Days {
		for _, shortage := range day.Shortages {
			assert.True(t, shortage.Degraded)
		}
	}
}

func TestScheduler_SubmitFailureKeepsSchedule(t *testing.T) {
	scenario := fixtures.BuildPlantScenario()
	deps := dependencies(scenario)
	deps.Procurement = failingProcurement{}
	s := newTestScheduler(t, deps, Config{})

	result, err := s.Regenerate(context.Background(), scenario.WeekStart)
	require.NoError(t, err)
	assert.Empty(t, result.Requisitions)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "procurement service down")
	assert.Equal(t, 1, scenario.Schedules.Saves())
}

func TestScheduler_InvalidAndMissingWeeks(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{})
	tuesday := scenario.Day(1)

	_, err := s.Regenerate(ctx, tuesday)
	assert.ErrorIs(t, err, entities.ErrInvalidDate)
	_, err = s.Approve(ctx, tuesday, ApproveOptions{})
	assert.ErrorIs(t, err, entities.ErrInvalidDate)
	_, err = s.GetSchedule(ctx, tuesday)
	assert.ErrorIs(t, err, entities.ErrInvalidDate)

	_, err = s.GetSchedule(ctx, scenario.WeekStart)
	assert.ErrorIs(t, err, entities.ErrWeekNotFound)
	_, err = s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	assert.ErrorIs(t, err, entities.ErrWeekNotFound)
}

func TestScheduler_EmptyWeekApprovesVacuously(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.NewScenario(fixtures.PlantWeek)
	s := newTestScheduler(t, dependencies(scenario), Config{})

	result, err := s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)
	assert.Empty(t, result.Week.Days)
	assert.Equal(t, entities.WeekReady, result.Week.Status)

	approval, err := s.Approve(ctx, scenario.WeekStart, ApproveOptions{})
	require.NoError(t, err)
	assert.Equal(t, entities.WeekApproved, approval.Week.Status)
	assert.Empty(t, approval.Reservations)
}

func TestScheduler_GetArrivals(t *testing.T) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{ArrivalLookaheadDays: 14})

	_, err := s.GetArrivals(ctx, scenario.WeekStart)
	require.ErrorIs(t, err, entities.ErrWeekNotFound)

	_, err = s.Regenerate(ctx, scenario.WeekStart)
	require.NoError(t, err)

	result, err := s.GetArrivals(ctx, scenario.WeekStart)
	require.NoError(t, err)
	require.Len(t, result.Arrivals, 2)
	assert.Equal(t, 2, result.Late)

	assert.Equal(t, "PO-9001", result.Arrivals[0].PONumber)
	assert.True(t, result.Arrivals[0].RequiredBy.Equal(scenario.Day(0)))
	assert.Equal(t, "PO-9002", result.Arrivals[1].PONumber)
	assert.True(t, result.Arrivals[1].RequiredBy.Equal(scenario.Day(1)))
}

func TestScheduler_ConcurrentRegenerations(t *testing.T) {
	defer goleak.VerifyNone(t)

	scenario := fixtures.BuildPlantScenario()
	s := newTestScheduler(t, dependencies(scenario), Config{ResolverConcurrency: 4})

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Regenerate(context.Background(), scenario.WeekStart); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Regenerate failed: %v", err)
	}
	assert.Equal(t, 5, scenario.Schedules.Saves())
}
