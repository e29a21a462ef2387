package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// DefaultTimeout bounds one Resolve call
const DefaultTimeout = 5 * time.Second

// Availability is what can be drawn for an item by a date
type Availability struct {
	ItemID     entities.ItemID
	RequiredBy time.Time
	OnHand     decimal.Decimal
	Arrivals   []entities.ArrivalRecord
	Degraded   bool
	Err        error
}

// Inbound sums the arrivals promised in time
func (a Availability) Inbound() decimal.Decimal {
	total := decimal.Zero
	for _, arrival := range a.Arrivals {
		if arrival.InTime {
			total = total.Add(arrival.RemainingQty)
		}
	}
	return total
}

// Total is on-hand plus in-time arrivals, zero when degraded
func (a Availability) Total() decimal.Decimal {
	if a.Degraded {
		return decimal.Zero
	}
	return a.OnHand.Add(a.Inbound())
}

// Config contains resolver configuration
type Config struct {
	Timeout time.Duration
}

// Resolver answers how much of an item is available by a date
type Resolver struct {
	inventory      repositories.InventoryRepository
	purchaseOrders repositories.PurchaseOrderRepository
	timeout        time.Duration
	logger         *zap.Logger
}

// NewResolver creates a new availability resolver
func NewResolver(
	inventory repositories.InventoryRepository,
	purchaseOrders repositories.PurchaseOrderRepository,
	config Config,
	logger *zap.Logger,
) *Resolver {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		inventory:      inventory,
		purchaseOrders: purchaseOrders,
		timeout:        config.Timeout,
		logger:         logger,
	}
}

type resolved struct {
	onHand decimal.Decimal
	lines  []entities.OpenPOLine
	err    error
}

// Resolve never fails: collaborator errors and timeouts yield a degraded
// result with zero availability.
func (r *Resolver) Resolve(ctx context.Context, itemID entities.ItemID, requiredBy time.Time) Availability {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan resolved, 1)
	go func() {
		done <- r.fetch(callCtx, itemID, requiredBy)
	}()

	var res resolved
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = resolved{err: callCtx.Err()}
	}

	if res.err != nil {
		return r.degrade(itemID, requiredBy, res.err)
	}

	arrivals := make([]entities.ArrivalRecord, 0, len(res.lines))
	for _, line := range res.lines {
		arrival := entities.NewArrivalRecord(line, requiredBy)
		if arrival.InTime && arrival.RemainingQty.IsPositive() {
			arrivals = append(arrivals, arrival)
		}
	}

	return Availability{
		ItemID:     itemID,
		RequiredBy: requiredBy,
		OnHand:     res.onHand,
		Arrivals:   arrivals,
	}
}

func (r *Resolver) fetch(ctx context.Context, itemID entities.ItemID, requiredBy time.Time) resolved {
	onHand, err := r.inventory.GetOnHand(ctx, itemID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		onHand = decimal.Zero
	case err != nil:
		return resolved{err: fmt.Errorf("failed to get on-hand: %w", err)}
	}
	if onHand.IsNegative() {
		onHand = decimal.Zero
	}

	lines, err := r.purchaseOrders.GetOpenLines(ctx, itemID, requiredBy)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		lines = nil
	case err != nil:
		return resolved{err: fmt.Errorf("failed to get open PO lines: %w", err)}
	}

	return resolved{onHand: onHand, lines: lines}
}

func (r *Resolver) degrade(itemID entities.ItemID, requiredBy time.Time, cause error) Availability {
	r.logger.Warn("availability degraded",
		zap.String("item_id", string(itemID)),
		zap.String("required_by", entities.FormatDate(requiredBy)),
		zap.Error(cause),
	)
	return Availability{
		ItemID:     itemID,
		RequiredBy: requiredBy,
		OnHand:     decimal.Zero,
		Arrivals:   []entities.ArrivalRecord{},
		Degraded:   true,
		Err:        fmt.Errorf("%w: item %s: %w", entities.ErrResolverDegraded, itemID, cause),
	}
}
