package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// reservationPlan splits every requirement of a week between stock
// reservations and holds on purchase lines that arrive in time
type reservationPlan struct {
	stock []entities.ReservationRequest
	holds []entities.Reservation
}

type inboundLine struct {
	entities.OpenPOLine
	left decimal.Decimal
}

// planReservations walks the days in evaluation order and draws each
// requirement from stock first, then from in-time purchase lines. A week
// the evaluator found READY against unchanged stock and orders always fits.
func (s *Scheduler) planReservations(ctx context.Context, week *entities.WeekSchedule) (*reservationPlan, error) {
	latest := make(map[entities.ItemID]time.Time)
	for _, campaign := range week.Campaigns {
		for _, r := range campaign.Requirements {
			if r.RequiredQty.IsPositive() && r.RequiredBy.After(latest[r.ItemID]) {
				latest[r.ItemID] = r.RequiredBy
			}
		}
	}

	stock := make(map[entities.ItemID]decimal.Decimal, len(latest))
	inbound := make(map[entities.ItemID][]*inboundLine, len(latest))
	for item, requiredBy := range latest {
		onHand, err := s.stockOf(ctx, item)
		if err != nil {
			return nil, &entities.ReservationConflictError{WeekStart: week.WeekStart, ItemID: item, Cause: err}
		}
		stock[item] = onHand

		lines, err := s.inboundOf(ctx, item, requiredBy)
		if err != nil {
			return nil, &entities.ReservationConflictError{WeekStart: week.WeekStart, ItemID: item, Cause: err}
		}
		inbound[item] = lines
	}

	plan := &reservationPlan{
		stock: make([]entities.ReservationRequest, 0),
		holds: make([]entities.Reservation, 0),
	}
	createdAt := s.now()
	for _, day := range week.Days {
		campaign := week.CampaignByID(day.CampaignID)
		if campaign == nil {
			continue
		}
		for _, r := range campaign.Requirements {
			if !r.RequiredQty.IsPositive() {
				continue
			}
			req := entities.ReservationRequest{
				ItemID:     r.ItemID,
				RefType:    entities.ReservationRefScheduleDay,
				RefID:      day.ID,
				CampaignID: campaign.ID,
			}

			need := r.RequiredQty
			if free := stock[r.ItemID]; free.IsPositive() {
				req.Quantity = decimal.Min(need, free)
				stock[r.ItemID] = free.Sub(req.Quantity)
				need = need.Sub(req.Quantity)
				plan.stock = append(plan.stock, req)
			}

			for _, line := range inbound[r.ItemID] {
				if !need.IsPositive() {
					break
				}
				if line.PromisedDate.After(r.RequiredBy) || !line.left.IsPositive() {
					continue
				}
				req.Quantity = decimal.Min(need, line.left)
				hold, err := entities.NewPurchaseHold(line.PONumber, req, createdAt)
				if err != nil {
					return nil, conflictError(week.WeekStart, err, &req)
				}
				line.left = line.left.Sub(req.Quantity)
				need = need.Sub(req.Quantity)
				plan.holds = append(plan.holds, *hold)
			}

			if need.IsPositive() {
				return nil, &entities.ReservationConflictError{
					WeekStart:  week.WeekStart,
					CampaignID: campaign.ID,
					ItemID:     r.ItemID,
					Quantity:   r.RequiredQty,
					Cause: fmt.Errorf("%w: %s is %s short after stock and arrivals by %s",
						entities.ErrInsufficientStock, r.ItemID, need, entities.FormatDate(r.RequiredBy)),
				}
			}
		}
	}
	return plan, nil
}

func (s *Scheduler) stockOf(ctx context.Context, item entities.ItemID) (decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	onHand, err := s.inventory.GetOnHand(callCtx, item)
	if errors.Is(err, repositories.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get stock of %s: %w", item, err)
	}
	return onHand, nil
}

func (s *Scheduler) inboundOf(ctx context.Context, item entities.ItemID, promisedBy time.Time) ([]*inboundLine, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	lines, err := s.purchaseOrders.GetOpenLines(callCtx, item, promisedBy)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open purchase lines of %s: %w", item, err)
	}

	out := make([]*inboundLine, 0, len(lines))
	for _, line := range lines {
		if line.RemainingQty.IsPositive() {
			out = append(out, &inboundLine{OpenPOLine: line, left: line.RemainingQty})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PromisedDate.Equal(out[j].PromisedDate) {
			return out[i].PromisedDate.Before(out[j].PromisedDate)
		}
		return out[i].PONumber < out[j].PONumber
	})
	return out, nil
}
