package memory

import (
	"context"
	"sync"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// JobOrderRepository provides in-memory job order lines
type JobOrderRepository struct {
	mu    sync.RWMutex
	lines []entities.JobOrderLine
}

// NewJobOrderRepository creates a new in-memory job order repository
func NewJobOrderRepository() *JobOrderRepository {
	return &JobOrderRepository{lines: make([]entities.JobOrderLine, 0)}
}

// Verify interface compliance
var _ repositories.JobOrderRepository = (*JobOrderRepository)(nil)

// LoadLines loads job order lines into the repository
func (r *JobOrderRepository) LoadLines(lines []*entities.JobOrderLine) error {
	for _, line := range lines {
		r.AddLine(*line)
	}
	return nil
}

// AddLine adds a job order line
func (r *JobOrderRepository) AddLine(line entities.JobOrderLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// GetProductionEligibleLines returns lines of pending and in-production jobs
func (r *JobOrderRepository) GetProductionEligibleLines(ctx context.Context) ([]entities.JobOrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := make([]entities.JobOrderLine, 0, len(r.lines))
	for _, line := range r.lines {
		if line.Status.ProductionEligible() {
			eligible = append(eligible, line)
		}
	}
	return eligible, nil
}
