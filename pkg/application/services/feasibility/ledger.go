package feasibility

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/application/services/availability"
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ClaimLedger tracks how much of each item earlier campaigns have drawn
type ClaimLedger map[entities.ItemID]decimal.Decimal

// NewClaimLedger creates a new empty claim ledger
func NewClaimLedger() ClaimLedger {
	return make(ClaimLedger)
}

// Claimed returns the quantity already drawn for an item
func (l ClaimLedger) Claimed(itemID entities.ItemID) decimal.Decimal {
	return l[itemID]
}

// Claim records a draw against an item
func (l ClaimLedger) Claim(itemID entities.ItemID, qty decimal.Decimal) {
	if !qty.IsPositive() {
		return
	}
	l[itemID] = l[itemID].Add(qty)
}

// Net subtracts earlier claims from resolved availability, floored at zero
func (l ClaimLedger) Net(itemID entities.ItemID, available decimal.Decimal) decimal.Decimal {
	net := available.Sub(l.Claimed(itemID))
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Items returns the claimed items in ID order
func (l ClaimLedger) Items() []entities.ItemID {
	items := make([]entities.ItemID, 0, len(l))
	for item := range l {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// String returns a string representation of the ledger for debugging
func (l ClaimLedger) String() string {
	if len(l) == 0 {
		return "ClaimLedger{empty}"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ClaimLedger{%d items:\n", len(l))
	for _, item := range l.Items() {
		fmt.Fprintf(&b, "  %s: claimed=%s\n", item, l[item])
	}
	b.WriteString("}")
	return b.String()
}

// resolutionCache holds one availability per item and required-by date
type resolutionCache map[string]availability.Availability

func (c resolutionCache) makeKey(itemID entities.ItemID, requiredBy time.Time) string {
	return fmt.Sprintf("%s|%s", itemID, entities.FormatDate(requiredBy))
}

func (c resolutionCache) get(itemID entities.ItemID, requiredBy time.Time) (availability.Availability, bool) {
	a, ok := c[c.makeKey(itemID, requiredBy)]
	return a, ok
}

func (c resolutionCache) set(itemID entities.ItemID, requiredBy time.Time, a availability.Availability) {
	c[c.makeKey(itemID, requiredBy)] = a
}
