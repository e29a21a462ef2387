package erpdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// JobOrderStore reads drum job orders that still need filling
type JobOrderStore struct {
	db *sqlx.DB
}

var _ repositories.JobOrderRepository = (*JobOrderStore)(nil)

type jobOrderRow struct {
	JobNumber    string    `db:"job_number"`
	ProductID    string    `db:"product_id"`
	PackagingID  string    `db:"packaging_id"`
	Drums        int64     `db:"quantity"`
	DeliveryDate time.Time `db:"delivery_date"`
	Status       string    `db:"status"`
}

// GetProductionEligibleLines returns pending and in-production lines
func (s *JobOrderStore) GetProductionEligibleLines(ctx context.Context) ([]entities.JobOrderLine, error) {
	query, args, err := sqlx.In(`
		SELECT job_number, product_id, packaging_id, quantity, delivery_date, status
		FROM job_orders
		WHERE status IN (?) AND quantity > 0
		ORDER BY delivery_date, job_number`,
		[]string{string(entities.JobOrderPending), string(entities.JobOrderInProduction)},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build job order query: %w", err)
	}

	var rows []jobOrderRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get job orders: %w", err)
	}

	lines := make([]entities.JobOrderLine, 0, len(rows))
	for _, row := range rows {
		line, err := entities.NewJobOrderLine(
			row.JobNumber,
			entities.ProductID(row.ProductID),
			entities.PackagingID(row.PackagingID),
			entities.Drums(row.Drums),
			row.DeliveryDate,
			entities.JobOrderStatus(row.Status),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid job order %s: %w", row.JobNumber, err)
		}
		lines = append(lines, *line)
	}
	return lines, nil
}
