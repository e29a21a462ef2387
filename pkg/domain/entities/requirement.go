package entities

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Requirement is the material one campaign needs by a given date
type Requirement struct {
	ItemID       ItemID          `json:"item_id"`
	ItemType     ItemType        `json:"item_type"`
	UOM          UnitOfMeasure   `json:"uom"`
	RequiredQty  decimal.Decimal `json:"required_qty"`
	RequiredBy   time.Time       `json:"required_by"`
	AvailableQty decimal.Decimal `json:"available_qty"`
	ShortageQty  decimal.Decimal `json:"shortage_qty"`
	Degraded     bool            `json:"degraded,omitempty"`
}

// Shortage returns max(0, required - available)
func Shortage(required, available decimal.Decimal) decimal.Decimal {
	s := required.Sub(available)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// ApplyAvailability records the resolved availability and recomputes the shortage
func (r *Requirement) ApplyAvailability(available decimal.Decimal, degraded bool) {
	r.AvailableQty = available
	r.ShortageQty = Shortage(r.RequiredQty, available)
	r.Degraded = degraded
}

// HasShortage reports whether the requirement cannot be covered
func (r Requirement) HasShortage() bool {
	return r.ShortageQty.IsPositive()
}

// ShortageDetail describes one uncovered requirement of a blocked day
type ShortageDetail struct {
	ItemID    ItemID          `json:"item_id"`
	ItemType  ItemType        `json:"item_type"`
	UOM       UnitOfMeasure   `json:"uom"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortage  decimal.Decimal `json:"shortage"`
	Degraded  bool            `json:"degraded,omitempty"`
}

// ShortageDetails collects the uncovered requirements sorted by descending shortage
func ShortageDetails(reqs []Requirement) []ShortageDetail {
	details := make([]ShortageDetail, 0)
	for _, r := range reqs {
		if !r.HasShortage() {
			continue
		}
		details = append(details, ShortageDetail{
			ItemID:    r.ItemID,
			ItemType:  r.ItemType,
			UOM:       r.UOM,
			Required:  r.RequiredQty,
			Available: r.AvailableQty,
			Shortage:  r.ShortageQty,
			Degraded:  r.Degraded,
		})
	}

	sort.SliceStable(details, func(i, j int) bool {
		if c := details[i].Shortage.Cmp(details[j].Shortage); c != 0 {
			return c > 0
		}
		return details[i].ItemID < details[j].ItemID
	})
	return details
}
