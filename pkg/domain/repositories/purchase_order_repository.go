package repositories

import (
	"context"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// PurchaseOrderRepository provides access to inbound purchase order lines
type PurchaseOrderRepository interface {
	// GetOpenLines returns lines of sent or partially received orders promised on or before the date
	GetOpenLines(ctx context.Context, itemID entities.ItemID, promisedBy time.Time) ([]entities.OpenPOLine, error)
}
