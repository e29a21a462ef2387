package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// InventoryRepository provides access to stock levels and reservations
type InventoryRepository interface {
	// GetOnHand returns stock net of existing reservations
	GetOnHand(ctx context.Context, itemID entities.ItemID) (decimal.Decimal, error)
	Reserve(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error)
	Release(ctx context.Context, reservationID string) error
}

// BatchReserver is implemented by inventories that can reserve atomically
type BatchReserver interface {
	// ReserveAll applies every request or none of them
	ReserveAll(ctx context.Context, reqs []entities.ReservationRequest) ([]entities.Reservation, error)
}
