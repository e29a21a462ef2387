package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionStatus is the lifecycle state of a procurement requisition
type RequisitionStatus string

const RequisitionDraft RequisitionStatus = "DRAFT"

// RequisitionLine asks purchasing for one item
type RequisitionLine struct {
	ItemID      ItemID          `json:"item_id"`
	ItemType    ItemType        `json:"item_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UOM         UnitOfMeasure   `json:"uom"`
	RequiredBy  time.Time       `json:"required_by"`
	CampaignIDs []string        `json:"campaign_ids"`
	Reason      string          `json:"reason"`
}

// ProcurementRequisition is a draft purchase request derived from shortages
type ProcurementRequisition struct {
	ID        string            `json:"id,omitempty"`
	WeekStart time.Time         `json:"week_start"`
	Status    RequisitionStatus `json:"status"`
	Lines     []RequisitionLine `json:"lines"`
	Notes     string            `json:"notes"`
}
