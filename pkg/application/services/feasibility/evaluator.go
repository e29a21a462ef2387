package feasibility

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/drumsched/pkg/application/services/availability"
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// DefaultConcurrency bounds parallel resolver calls
const DefaultConcurrency = 8

// AvailabilityResolver resolves item availability by date
type AvailabilityResolver interface {
	Resolve(ctx context.Context, itemID entities.ItemID, requiredBy time.Time) availability.Availability
}

// Result is the feasibility verdict of one campaign
type Result struct {
	CampaignID     string
	Status         entities.DayStatus
	BlockingReason entities.BlockingReason
	Requirements   []entities.Requirement
	Shortages      []entities.ShortageDetail
	Degraded       []error
}

// Ready reports whether the campaign can run
func (r *Result) Ready() bool {
	return r.Status == entities.DayReady
}

// Config contains evaluator configuration
type Config struct {
	Concurrency int
}

// Evaluator checks campaigns against available material
type Evaluator struct {
	resolver    AvailabilityResolver
	concurrency int
	logger      *zap.Logger
}

// NewEvaluator creates a new feasibility evaluator
func NewEvaluator(resolver AvailabilityResolver, config Config, logger *zap.Logger) *Evaluator {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		resolver:    resolver,
		concurrency: config.Concurrency,
		logger:      logger,
	}
}

// Evaluate checks a single campaign on its own
func (e *Evaluator) Evaluate(ctx context.Context, campaign *entities.Campaign) (*Result, error) {
	results, err := e.EvaluateAll(ctx, []*entities.Campaign{campaign})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// EvaluateAll checks campaigns in the given order. Material covered for an
// earlier campaign is not available to later ones.
func (e *Evaluator) EvaluateAll(ctx context.Context, campaigns []*entities.Campaign) ([]*Result, error) {
	cache, err := e.resolveAll(ctx, campaigns)
	if err != nil {
		return nil, err
	}

	ledger := NewClaimLedger()
	results := make([]*Result, 0, len(campaigns))
	for _, campaign := range campaigns {
		result := &Result{
			CampaignID:   campaign.ID,
			Requirements: make([]entities.Requirement, len(campaign.Requirements)),
			Degraded:     make([]error, 0),
		}
		copy(result.Requirements, campaign.Requirements)

		for i := range result.Requirements {
			req := &result.Requirements[i]
			avail, _ := cache.get(req.ItemID, req.RequiredBy)
			if avail.Degraded {
				req.ApplyAvailability(avail.Total(), true)
				result.Degraded = append(result.Degraded, avail.Err)
				continue
			}

			req.ApplyAvailability(ledger.Net(req.ItemID, avail.Total()), false)
			ledger.Claim(req.ItemID, decimal.Min(req.RequiredQty, req.AvailableQty))
		}

		result.Shortages = entities.ShortageDetails(result.Requirements)
		if len(result.Shortages) > 0 {
			result.Status = entities.DayBlocked
			result.BlockingReason = entities.ReasonMaterialShortage
		} else {
			result.Status = entities.DayReady
			result.BlockingReason = entities.ReasonNone
		}

		e.logger.Debug("campaign evaluated",
			zap.String("campaign_id", campaign.ID),
			zap.String("status", string(result.Status)),
			zap.Int("shortages", len(result.Shortages)),
		)
		results = append(results, result)
	}

	return results, nil
}

// resolveAll resolves each distinct item and date once, in parallel
func (e *Evaluator) resolveAll(ctx context.Context, campaigns []*entities.Campaign) (resolutionCache, error) {
	type pair struct {
		itemID     entities.ItemID
		requiredBy time.Time
	}

	cache := make(resolutionCache)
	pending := make([]pair, 0)
	seen := make(map[string]bool)
	for _, campaign := range campaigns {
		for _, req := range campaign.Requirements {
			key := cache.makeKey(req.ItemID, req.RequiredBy)
			if seen[key] {
				continue
			}
			seen[key] = true
			pending = append(pending, pair{itemID: req.ItemID, requiredBy: req.RequiredBy})
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, p := range pending {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			avail := e.resolver.Resolve(gctx, p.itemID, p.requiredBy)
			mu.Lock()
			cache.set(p.itemID, p.requiredBy, avail)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}

	return cache, nil
}
