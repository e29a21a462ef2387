package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft    PurchaseOrderStatus = "DRAFT"
	PurchaseOrderApproved PurchaseOrderStatus = "APPROVED"
	PurchaseOrderSent     PurchaseOrderStatus = "SENT"
	PurchaseOrderPartial  PurchaseOrderStatus = "PARTIAL"
	PurchaseOrderReceived PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderClosed   PurchaseOrderStatus = "CLOSED"
)

// Inbound reports whether goods on orders of this status are still expected
func (s PurchaseOrderStatus) Inbound() bool {
	return s == PurchaseOrderSent || s == PurchaseOrderPartial
}

// OpenPOLine is the undelivered remainder of a purchase order line
type OpenPOLine struct {
	PONumber     string          `json:"po_number"`
	ItemID       ItemID          `json:"item_id"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	PromisedDate time.Time       `json:"promised_date"`
}

// NewOpenPOLine derives the open remainder of an ordered quantity
func NewOpenPOLine(
	poNumber string,
	itemID ItemID,
	orderedQty, receivedQty decimal.Decimal,
	promisedDate time.Time,
) (*OpenPOLine, error) {
	if poNumber == "" {
		return nil, fmt.Errorf("po number cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if orderedQty.IsNegative() || receivedQty.IsNegative() {
		return nil, fmt.Errorf("quantities cannot be negative, got ordered %s received %s", orderedQty, receivedQty)
	}
	remaining := orderedQty.Sub(receivedQty)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &OpenPOLine{
		PONumber:     poNumber,
		ItemID:       itemID,
		RemainingQty: remaining,
		PromisedDate: DateOnly(promisedDate),
	}, nil
}

// ArrivalRecord is an expected purchase arrival matched against a requirement
type ArrivalRecord struct {
	ItemID       ItemID          `json:"item_id"`
	PONumber     string          `json:"po_number"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	PromisedDate time.Time       `json:"promised_date"`
	RequiredBy   time.Time       `json:"required_by"`
	InTime       bool            `json:"in_time"`
}

// NewArrivalRecord matches an open PO line against the date its item is needed
func NewArrivalRecord(line OpenPOLine, requiredBy time.Time) ArrivalRecord {
	return ArrivalRecord{
		ItemID:       line.ItemID,
		PONumber:     line.PONumber,
		RemainingQty: line.RemainingQty,
		PromisedDate: line.PromisedDate,
		RequiredBy:   requiredBy,
		InTime:       !line.PromisedDate.After(requiredBy),
	}
}
