package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

type purchaseOrderLine struct {
	status entities.PurchaseOrderStatus
	line   entities.OpenPOLine
}

// PurchaseOrderRepository provides in-memory purchase order lines
type PurchaseOrderRepository struct {
	mu    sync.RWMutex
	lines []purchaseOrderLine
}

// NewPurchaseOrderRepository creates a new in-memory purchase order repository
func NewPurchaseOrderRepository() *PurchaseOrderRepository {
	return &PurchaseOrderRepository{lines: make([]purchaseOrderLine, 0)}
}

// Verify interface compliance
var _ repositories.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)

// AddLine adds a purchase order line with its order status
func (r *PurchaseOrderRepository) AddLine(status entities.PurchaseOrderStatus, line entities.OpenPOLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, purchaseOrderLine{status: status, line: line})
}

// GetOpenLines returns inbound lines for an item promised on or before a date
func (r *PurchaseOrderRepository) GetOpenLines(
	ctx context.Context,
	itemID entities.ItemID,
	promisedBy time.Time,
) ([]entities.OpenPOLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]entities.OpenPOLine, 0)
	for _, pl := range r.lines {
		if pl.line.ItemID != itemID || !pl.status.Inbound() {
			continue
		}
		if !pl.line.RemainingQty.IsPositive() || pl.line.PromisedDate.After(promisedBy) {
			continue
		}
		open = append(open, pl.line)
	}

	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].PromisedDate.Equal(open[j].PromisedDate) {
			return open[i].PromisedDate.Before(open[j].PromisedDate)
		}
		return open[i].PONumber < open[j].PONumber
	})
	return open, nil
}
