package erpdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// PurchaseOrderStore reads open lines of sent and partially received orders
type PurchaseOrderStore struct {
	db *sqlx.DB
}

var _ repositories.PurchaseOrderRepository = (*PurchaseOrderStore)(nil)

type openLineRow struct {
	PONumber     string          `db:"po_number"`
	ItemID       string          `db:"item_id"`
	Qty          decimal.Decimal `db:"qty"`
	ReceivedQty  decimal.Decimal `db:"received_qty"`
	PromisedDate time.Time       `db:"promised_delivery_date"`
}

// GetOpenLines returns inbound lines of itemID promised on or before promisedBy
func (s *PurchaseOrderStore) GetOpenLines(
	ctx context.Context,
	itemID entities.ItemID,
	promisedBy time.Time,
) ([]entities.OpenPOLine, error) {
	query, args, err := sqlx.In(`
		SELECT po.po_number, l.item_id, l.qty, l.received_qty, l.promised_delivery_date
		FROM purchase_order_lines l
		JOIN purchase_orders po ON po.id = l.po_id
		WHERE l.item_id = ?
		  AND po.status IN (?)
		  AND l.promised_delivery_date <= ?
		  AND l.qty > l.received_qty
		ORDER BY l.promised_delivery_date, po.po_number`,
		string(itemID),
		[]string{string(entities.PurchaseOrderSent), string(entities.PurchaseOrderPartial)},
		entities.FormatDate(promisedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build open line query: %w", err)
	}

	var rows []openLineRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get open PO lines for %s: %w", itemID, err)
	}

	lines := make([]entities.OpenPOLine, 0, len(rows))
	for _, row := range rows {
		line, err := entities.NewOpenPOLine(row.PONumber, entities.ItemID(row.ItemID), row.Qty, row.ReceivedQty, row.PromisedDate)
		if err != nil {
			return nil, fmt.Errorf("invalid PO line %s/%s: %w", row.PONumber, row.ItemID, err)
		}
		lines = append(lines, *line)
	}
	return lines, nil
}
