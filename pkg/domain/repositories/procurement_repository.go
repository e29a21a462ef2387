package repositories

import (
	"context"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ProcurementRepository accepts draft requisitions
type ProcurementRepository interface {
	// SubmitRequisition stores the requisition and returns its assigned ID
	SubmitRequisition(ctx context.Context, req *entities.ProcurementRequisition) (string, error)
}
