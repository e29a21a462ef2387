package entities

import (
	"fmt"
	"time"
)

// JobOrderStatus is the lifecycle state of a customer job order
type JobOrderStatus string

const (
	JobOrderPending      JobOrderStatus = "pending"
	JobOrderInProduction JobOrderStatus = "in_production"
	JobOrderReady        JobOrderStatus = "ready"
	JobOrderDispatched   JobOrderStatus = "dispatched"
	JobOrderCancelled    JobOrderStatus = "cancelled"
)

// ProductionEligible reports whether lines of this status still need filling
func (s JobOrderStatus) ProductionEligible() bool {
	return s == JobOrderPending || s == JobOrderInProduction
}

// JobOrderLine is one product+packaging line of a customer job order
type JobOrderLine struct {
	JobNumber    string         `json:"job_number"`
	ProductID    ProductID      `json:"product_id"`
	PackagingID  PackagingID    `json:"packaging_id"`
	Drums        Drums          `json:"drums"`
	DeliveryDate time.Time      `json:"delivery_date"`
	Status       JobOrderStatus `json:"status"`
}

// NewJobOrderLine creates a new job order line with validation
func NewJobOrderLine(
	jobNumber string,
	productID ProductID,
	packagingID PackagingID,
	drums Drums,
	deliveryDate time.Time,
	status JobOrderStatus,
) (*JobOrderLine, error) {
	if jobNumber == "" {
		return nil, fmt.Errorf("job number cannot be empty")
	}
	if productID == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if packagingID == "" {
		return nil, fmt.Errorf("packaging id cannot be empty")
	}
	if drums <= 0 {
		return nil, fmt.Errorf("drums must be positive, got %d", drums)
	}
	if status == "" {
		status = JobOrderPending
	}

	return &JobOrderLine{
		JobNumber:    jobNumber,
		ProductID:    productID,
		PackagingID:  packagingID,
		Drums:        drums,
		DeliveryDate: DateOnly(deliveryDate),
		Status:       status,
	}, nil
}
