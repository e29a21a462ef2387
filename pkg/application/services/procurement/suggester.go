package procurement

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// Suggester turns confirmed shortages into draft requisitions
type Suggester struct {
	logger *zap.Logger
}

// NewSuggester creates a new procurement suggester
func NewSuggester(logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{logger: logger}
}

type lineAccumulator struct {
	line      entities.RequisitionLine
	campaigns map[string]bool
}

// Suggest groups shortages by item across campaigns into one draft requisition.
// Degraded requirements are left out: their shortage is unconfirmed.
func (s *Suggester) Suggest(weekStart time.Time, campaigns []entities.Campaign) []entities.ProcurementRequisition {
	byItem := make(map[entities.ItemID]*lineAccumulator)
	skipped := 0

	for _, campaign := range campaigns {
		for _, req := range campaign.Requirements {
			if !req.HasShortage() {
				continue
			}
			if req.Degraded {
				skipped++
				continue
			}

			acc, exists := byItem[req.ItemID]
			if !exists {
				acc = &lineAccumulator{
					line: entities.RequisitionLine{
						ItemID:     req.ItemID,
						ItemType:   req.ItemType,
						Quantity:   decimal.Zero,
						UOM:        req.UOM,
						RequiredBy: req.RequiredBy,
					},
					campaigns: make(map[string]bool),
				}
				byItem[req.ItemID] = acc
			}

			acc.line.Quantity = acc.line.Quantity.Add(req.ShortageQty)
			if req.RequiredBy.Before(acc.line.RequiredBy) {
				acc.line.RequiredBy = req.RequiredBy
			}
			acc.campaigns[campaign.ID] = true
		}
	}

	if skipped > 0 {
		s.logger.Warn("degraded shortages left out of procurement suggestions",
			zap.String("week_start", entities.FormatDate(weekStart)),
			zap.Int("requirements", skipped),
		)
	}
	if len(byItem) == 0 {
		return []entities.ProcurementRequisition{}
	}

	lines := make([]entities.RequisitionLine, 0, len(byItem))
	for _, acc := range byItem {
		ids := make([]string, 0, len(acc.campaigns))
		for id := range acc.campaigns {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		acc.line.CampaignIDs = ids
		acc.line.Reason = fmt.Sprintf("material shortage for %d campaign(s) in week %s",
			len(ids), entities.FormatDate(weekStart))
		lines = append(lines, acc.line)
	}

	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].RequiredBy.Equal(lines[j].RequiredBy) {
			return lines[i].RequiredBy.Before(lines[j].RequiredBy)
		}
		return lines[i].ItemID < lines[j].ItemID
	})

	return []entities.ProcurementRequisition{{
		WeekStart: weekStart,
		Status:    entities.RequisitionDraft,
		Lines:     lines,
		Notes:     fmt.Sprintf("Suggested by drum schedule for week %s", entities.FormatDate(weekStart)),
	}}
}
