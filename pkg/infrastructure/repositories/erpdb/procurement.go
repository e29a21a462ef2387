package erpdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// ProcurementStore writes draft requisitions for purchasing to review
type ProcurementStore struct {
	db *sqlx.DB
}

var _ repositories.ProcurementRepository = (*ProcurementStore)(nil)

// SubmitRequisition stores the header and lines in one transaction
func (s *ProcurementStore) SubmitRequisition(ctx context.Context, req *entities.ProcurementRequisition) (string, error) {
	if req == nil || len(req.Lines) == 0 {
		return "", fmt.Errorf("requisition must have at least one line")
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin requisition: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO procurement_requisitions
		(id, week_start, status, notes, created_at) VALUES (?, ?, ?, ?, ?)`),
		id, entities.WeekKey(req.WeekStart), string(req.Status), req.Notes, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert requisition: %w", err)
	}

	insertLine := tx.Rebind(`INSERT INTO procurement_requisition_lines
		(id, pr_id, item_id, item_type, qty, uom, required_by, campaign_ids, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, line := range req.Lines {
		if _, err := tx.ExecContext(ctx, insertLine,
			uuid.NewString(), id, string(line.ItemID), string(line.ItemType), line.Quantity,
			string(line.UOM), entities.FormatDate(line.RequiredBy), strings.Join(line.CampaignIDs, ","), line.Reason,
		); err != nil {
			return "", fmt.Errorf("failed to insert requisition line for %s: %w", line.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit requisition: %w", err)
	}
	return id, nil
}
