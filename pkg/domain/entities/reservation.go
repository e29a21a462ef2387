package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationRefScheduleDay marks reservations held for a schedule day
const ReservationRefScheduleDay = "SCHEDULE_DAY"

// Reservation kinds: stock is set aside by inventory, a purchase hold
// earmarks part of an open purchase line that arrives in time
const (
	ReservationKindStock = "STOCK"
	ReservationKindHold  = "PO_HOLD"
)

// ReservationRequest asks inventory to set material aside
type ReservationRequest struct {
	ItemID     ItemID          `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	RefType    string          `json:"ref_type"`
	RefID      string          `json:"ref_id"`
	CampaignID string          `json:"campaign_id"`
}

// Validate checks the request before it reaches inventory
func (r ReservationRequest) Validate() error {
	if r.ItemID == "" {
		return fmt.Errorf("item id cannot be empty")
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("reservation quantity must be positive, got %s", r.Quantity)
	}
	return nil
}

// Reservation is material set aside against a schedule day
type Reservation struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	ItemID     ItemID          `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	PONumber   string          `json:"po_number,omitempty"`
	RefType    string          `json:"ref_type"`
	RefID      string          `json:"ref_id"`
	CampaignID string          `json:"campaign_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPurchaseHold earmarks qty of an open purchase line for a schedule day
func NewPurchaseHold(poNumber string, req ReservationRequest, createdAt time.Time) (*Reservation, error) {
	if poNumber == "" {
		return nil, fmt.Errorf("po number cannot be empty")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:         uuid.NewString(),
		Kind:       ReservationKindHold,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		PONumber:   poNumber,
		RefType:    req.RefType,
		RefID:      req.RefID,
		CampaignID: req.CampaignID,
		CreatedAt:  createdAt,
	}, nil
}

// IsHold reports whether the reservation only earmarks inbound goods
func (r Reservation) IsHold() bool {
	return r.Kind == ReservationKindHold
}
