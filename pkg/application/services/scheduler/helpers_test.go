package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
	fixtures "github.com/vsinha/drumsched/pkg/infrastructure/testing"
)

var fixedNow = time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)

func dependencies(s *fixtures.Scenario) Dependencies {
	return Dependencies{
		JobOrders:      s.JobOrders,
		Inventory:      s.Inventory,
		PurchaseOrders: s.PurchaseOrders,
		Procurement:    s.Procurement,
		MasterData:     s.MasterData,
		Schedules:      s.Schedules,
		Clock:          func() time.Time { return fixedNow },
	}
}

func newTestScheduler(t *testing.T, deps Dependencies, config Config) *Scheduler {
	t.Helper()
	s, err := NewScheduler(deps, config)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	return s
}

// sequentialInventory hides ReserveAll so approval falls back to one-by-one
// reservation, and refuses to reserve one item
type sequentialInventory struct {
	repositories.InventoryRepository
	refuse entities.ItemID
}

func (i sequentialInventory) Reserve(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error) {
	if req.ItemID == i.refuse {
		return nil, fmt.Errorf("%w: %s is on quality hold", entities.ErrInsufficientStock, req.ItemID)
	}
	return i.InventoryRepository.Reserve(ctx, req)
}

// flakyRelease fails the failOn-th call to Release
type flakyRelease struct {
	repositories.InventoryRepository
	failOn int
	calls  int
}

func (f *flakyRelease) Release(ctx context.Context, reservationID string) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("inventory service unavailable")
	}
	return f.InventoryRepository.Release(ctx, reservationID)
}
