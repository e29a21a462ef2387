package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// ProcurementRepository collects submitted requisitions in memory
type ProcurementRepository struct {
	mu           sync.Mutex
	requisitions []entities.ProcurementRequisition
}

// NewProcurementRepository creates a new in-memory procurement repository
func NewProcurementRepository() *ProcurementRepository {
	return &ProcurementRepository{requisitions: make([]entities.ProcurementRequisition, 0)}
}

// Verify interface compliance
var _ repositories.ProcurementRepository = (*ProcurementRepository)(nil)

// SubmitRequisition stores the requisition under a sequential number
func (r *ProcurementRepository) SubmitRequisition(ctx context.Context, req *entities.ProcurementRequisition) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Lines) == 0 {
		return "", fmt.Errorf("requisition has no lines")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("REQ-%05d", len(r.requisitions)+1)
	stored := *req
	stored.ID = id
	stored.Lines = append([]entities.RequisitionLine(nil), req.Lines...)
	r.requisitions = append(r.requisitions, stored)
	return id, nil
}

// Requisitions returns every submitted requisition in submission order
func (r *ProcurementRepository) Requisitions() []entities.ProcurementRequisition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.ProcurementRequisition(nil), r.requisitions...)
}
