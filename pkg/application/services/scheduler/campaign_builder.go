package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

// BuildResult holds the campaigns consolidated from job order demand
type BuildResult struct {
	Campaigns []*entities.Campaign
	Unplanned []entities.UnplannedCampaign
}

// CampaignBuilder consolidates job order lines into product+packaging campaigns
type CampaignBuilder struct {
	explosion *services.RequirementExplosion
	logger    *zap.Logger
}

// NewCampaignBuilder creates a new campaign builder
func NewCampaignBuilder(explosion *services.RequirementExplosion, logger *zap.Logger) *CampaignBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignBuilder{explosion: explosion, logger: logger}
}

// Build groups lines and explodes each campaign into material requirements.
// Campaigns whose master data is incomplete are returned as unplanned.
func (b *CampaignBuilder) Build(
	ctx context.Context,
	weekStart time.Time,
	lines []entities.JobOrderLine,
) (*BuildResult, error) {
	sorted := make([]entities.JobOrderLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, c := sorted[i], sorted[j]
		if !a.DeliveryDate.Equal(c.DeliveryDate) {
			return a.DeliveryDate.Before(c.DeliveryDate)
		}
		if a.JobNumber != c.JobNumber {
			return a.JobNumber < c.JobNumber
		}
		if a.ProductID != c.ProductID {
			return a.ProductID < c.ProductID
		}
		return a.PackagingID < c.PackagingID
	})

	// Pass 1: consolidate lines in deadline order
	order := make([]*entities.Campaign, 0)
	byKey := make(map[string]*entities.Campaign)
	for _, line := range sorted {
		if line.Drums <= 0 {
			continue
		}
		key := fmt.Sprintf("%s|%s", line.ProductID, line.PackagingID)
		campaign, exists := byKey[key]
		if !exists {
			var err error
			campaign, err = entities.NewCampaign(weekStart, line.ProductID, line.PackagingID, len(order))
			if err != nil {
				return nil, fmt.Errorf("failed to create campaign for job %s: %w", line.JobNumber, err)
			}
			byKey[key] = campaign
			order = append(order, campaign)
		}
		if err := campaign.AddJobLine(line); err != nil {
			return nil, fmt.Errorf("failed to add job %s: %w", line.JobNumber, err)
		}
	}

	// Pass 2: explode into requirements
	result := &BuildResult{
		Campaigns: make([]*entities.Campaign, 0, len(order)),
		Unplanned: make([]entities.UnplannedCampaign, 0),
	}
	for _, campaign := range order {
		reqs, err := b.explosion.Explode(ctx, campaign)
		if err != nil {
			reason, ok := unplannedReason(err)
			if !ok {
				return nil, fmt.Errorf("failed to explode campaign %s/%s: %w",
					campaign.ProductID, campaign.PackagingID, err)
			}
			b.logger.Warn("campaign left unplanned",
				zap.String("product_id", string(campaign.ProductID)),
				zap.String("packaging_id", string(campaign.PackagingID)),
				zap.Error(err),
			)
			result.Unplanned = append(result.Unplanned, entities.UnplannedCampaign{
				CampaignID:  campaign.ID,
				ProductID:   campaign.ProductID,
				PackagingID: campaign.PackagingID,
				Drums:       campaign.PlannedDrums,
				JobNumbers:  campaign.JobNumbers(),
				Reason:      reason,
			})
			continue
		}
		campaign.Requirements = reqs
		result.Campaigns = append(result.Campaigns, campaign)
	}

	return result, nil
}

func unplannedReason(err error) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrBOMMissing):
		return "BOM_MISSING: " + err.Error(), true
	case errors.Is(err, entities.ErrConversionMissing):
		return "CONVERSION_MISSING: " + err.Error(), true
	default:
		return "", false
	}
}
