package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// InventoryRepository provides in-memory stock with reservations
type InventoryRepository struct {
	mu           sync.RWMutex
	stock        map[entities.ItemID]decimal.Decimal
	reservations map[string]entities.Reservation
}

// NewInventoryRepository creates a new in-memory inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		stock:        make(map[entities.ItemID]decimal.Decimal),
		reservations: make(map[string]entities.Reservation),
	}
}

// Verify interface compliance
var (
	_ repositories.InventoryRepository = (*InventoryRepository)(nil)
	_ repositories.BatchReserver       = (*InventoryRepository)(nil)
)

// SetOnHand sets the physical stock of an item
func (r *InventoryRepository) SetOnHand(itemID entities.ItemID, qty decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[itemID] = qty
}

// GetOnHand returns physical stock net of reservations
func (r *InventoryRepository) GetOnHand(ctx context.Context, itemID entities.ItemID) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.stock[itemID]; !exists {
		return decimal.Zero, fmt.Errorf("item %s: %w", itemID, repositories.ErrNotFound)
	}
	return r.availableLocked(itemID), nil
}

// Reserve sets material aside for a schedule day
func (r *InventoryRepository) Reserve(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.reserveLocked(req)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ReserveAll applies every request or none of them
func (r *InventoryRepository) ReserveAll(ctx context.Context, reqs []entities.ReservationRequest) ([]entities.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	applied := make([]entities.Reservation, 0, len(reqs))
	for _, req := range reqs {
		res, err := r.reserveLocked(req)
		if err != nil {
			for _, done := range applied {
				delete(r.reservations, done.ID)
			}
			return nil, &entities.ReservationConflictError{
				CampaignID: req.CampaignID,
				ItemID:     req.ItemID,
				Quantity:   req.Quantity,
				Cause:      err,
			}
		}
		applied = append(applied, res)
	}
	return applied, nil
}

// Release returns reserved material to stock
func (r *InventoryRepository) Release(ctx context.Context, reservationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[reservationID]; !exists {
		return fmt.Errorf("reservation %s: %w", reservationID, repositories.ErrNotFound)
	}
	delete(r.reservations, reservationID)
	return nil
}

// Reservations returns the open reservations ordered by reference
func (r *InventoryRepository) Reservations() []entities.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RefID != out[j].RefID {
			return out[i].RefID < out[j].RefID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

func (r *InventoryRepository) reserveLocked(req entities.ReservationRequest) (entities.Reservation, error) {
	if err := req.Validate(); err != nil {
		return entities.Reservation{}, err
	}
	available := r.availableLocked(req.ItemID)
	if available.LessThan(req.Quantity) {
		return entities.Reservation{}, fmt.Errorf("%w: %s has %s available, requested %s",
			entities.ErrInsufficientStock, req.ItemID, available, req.Quantity)
	}

	res := entities.Reservation{
		ID:         uuid.NewString(),
		Kind:       entities.ReservationKindStock,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		RefType:    req.RefType,
		RefID:      req.RefID,
		CampaignID: req.CampaignID,
		CreatedAt:  time.Now().UTC(),
	}
	r.reservations[res.ID] = res
	return res, nil
}

func (r *InventoryRepository) availableLocked(itemID entities.ItemID) decimal.Decimal {
	available := r.stock[itemID]
	for _, res := range r.reservations {
		if res.ItemID == itemID {
			available = available.Sub(res.Quantity)
		}
	}
	return available
}
