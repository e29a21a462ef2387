package repositories

import (
	"context"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// JobOrderRepository provides access to customer demand
type JobOrderRepository interface {
	GetProductionEligibleLines(ctx context.Context) ([]entities.JobOrderLine, error)
}
