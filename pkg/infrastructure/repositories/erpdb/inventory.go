package erpdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// InventoryStore reads inventory_balances and writes inventory_reservations
type InventoryStore struct {
	db *sqlx.DB
}

var (
	_ repositories.InventoryRepository = (*InventoryStore)(nil)
	_ repositories.BatchReserver       = (*InventoryStore)(nil)
)

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// GetOnHand returns on-hand stock net of reservations
func (s *InventoryStore) GetOnHand(ctx context.Context, itemID entities.ItemID) (decimal.Decimal, error) {
	return available(ctx, s.db, itemID, false)
}

func available(ctx context.Context, q queryer, itemID entities.ItemID, lock bool) (decimal.Decimal, error) {
	query := `SELECT on_hand FROM inventory_balances WHERE item_id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	var onHand decimal.Decimal
	err := q.GetContext(ctx, &onHand, q.Rebind(query), string(itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("item %s: %w", itemID, repositories.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance of %s: %w", itemID, err)
	}

	var reserved decimal.NullDecimal
	query = `SELECT SUM(qty) FROM inventory_reservations WHERE item_id = ?`
	if err := q.GetContext(ctx, &reserved, q.Rebind(query), string(itemID)); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum reservations of %s: %w", itemID, err)
	}
	if reserved.Valid {
		onHand = onHand.Sub(reserved.Decimal)
	}
	return onHand, nil
}

// Reserve sets material aside for a schedule day
func (s *InventoryStore) Reserve(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error) {
	reserved, err := s.ReserveAll(ctx, []entities.ReservationRequest{req})
	if err != nil {
		var conflict *entities.ReservationConflictError
		if errors.As(err, &conflict) {
			return nil, conflict.Cause
		}
		return nil, err
	}
	return &reserved[0], nil
}

// ReserveAll applies every request in one transaction
func (s *InventoryStore) ReserveAll(ctx context.Context, reqs []entities.ReservationRequest) ([]entities.Reservation, error) {
	lock := s.db.DriverName() == "postgres"
	reserved := make([]entities.Reservation, 0, len(reqs))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	insert := tx.Rebind(`INSERT INTO inventory_reservations
		(id, item_id, qty, ref_type, ref_id, campaign_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	for _, req := range reqs {
		conflict := func(cause error) error {
			return &entities.ReservationConflictError{
				CampaignID: req.CampaignID,
				ItemID:     req.ItemID,
				Quantity:   req.Quantity,
				Cause:      cause,
			}
		}
		if err := req.Validate(); err != nil {
			return nil, conflict(err)
		}

		free, err := available(ctx, tx, req.ItemID, lock)
		if errors.Is(err, repositories.ErrNotFound) {
			free = decimal.Zero
		} else if err != nil {
			return nil, err
		}
		if free.LessThan(req.Quantity) {
			return nil, conflict(fmt.Errorf("%w: %s has %s available, requested %s",
				entities.ErrInsufficientStock, req.ItemID, free, req.Quantity))
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
		if _, err := tx.ExecContext(ctx, insert,
			res.ID, string(res.ItemID), res.Quantity, res.RefType, res.RefID, res.CampaignID, res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert reservation for %s: %w", req.ItemID, err)
		}
		reserved = append(reserved, res)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservations: %w", err)
	}
	return reserved, nil
}

// Release deletes a reservation
func (s *InventoryStore) Release(ctx context.Context, reservationID string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM inventory_reservations WHERE id = ?`), reservationID)
	if err != nil {
		return fmt.Errorf("failed to release reservation %s: %w", reservationID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to release reservation %s: %w", reservationID, err)
	}
	if n == 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, repositories.ErrNotFound)
	}
	return nil
}
