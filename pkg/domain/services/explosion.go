package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// quantityPlaces is the precision requirements are rounded to
const quantityPlaces = 4

// RequirementExplosion turns campaigns into RAW and PACK requirements
type RequirementExplosion struct {
	masterData repositories.MasterDataRepository
}

// NewRequirementExplosion creates a new requirement explosion service
func NewRequirementExplosion(masterData repositories.MasterDataRepository) *RequirementExplosion {
	return &RequirementExplosion{masterData: masterData}
}

// NetWeightKg resolves the fill weight of one drum of product in packaging.
// Order: packaging spec, packaging default, capacity x density.
func (e *RequirementExplosion) NetWeightKg(
	ctx context.Context,
	productID entities.ProductID,
	packagingID entities.PackagingID,
) (decimal.Decimal, error) {
	spec, err := e.masterData.GetPackagingSpec(ctx, productID, packagingID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to get packaging spec: %w", err)
	}
	if spec != nil && spec.NetWeightKg.IsPositive() {
		return spec.NetWeightKg, nil
	}

	packaging, err := e.masterData.GetPackaging(ctx, packagingID)
	if errors.Is(err, repositories.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: packaging %s not found", entities.ErrConversionMissing, packagingID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get packaging: %w", err)
	}
	if packaging.NetWeightKgDefault.IsPositive() {
		return packaging.NetWeightKgDefault, nil
	}

	product, err := e.masterData.GetProduct(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: product %s not found", entities.ErrConversionMissing, productID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get product: %w", err)
	}
	if packaging.CapacityLiters.IsPositive() && product.DensityKgPerL.IsPositive() {
		return packaging.CapacityLiters.Mul(product.DensityKgPerL), nil
	}

	return decimal.Zero, fmt.Errorf("%w: no net weight for %s in %s", entities.ErrConversionMissing, productID, packagingID)
}

// Explode computes the campaign's material requirements. RequiredBy is left
// unset; the caller stamps it once the campaign has a production date.
func (e *RequirementExplosion) Explode(ctx context.Context, campaign *entities.Campaign) ([]entities.Requirement, error) {
	netWeight, err := e.NetWeightKg(ctx, campaign.ProductID, campaign.PackagingID)
	if err != nil {
		return nil, err
	}

	productBOM, err := e.masterData.GetProductBOM(ctx, campaign.ProductID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to get product BOM: %w", err)
	}
	if len(productBOM) == 0 {
		return nil, fmt.Errorf("%w: product %s has no BOM lines", entities.ErrBOMMissing, campaign.ProductID)
	}

	packagingBOM, err := e.masterData.GetPackagingBOM(ctx, campaign.PackagingID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to get packaging BOM: %w", err)
	}

	drums := decimal.NewFromInt(int64(campaign.PlannedDrums))
	finishedKg := drums.Mul(netWeight)

	reqs := make([]entities.Requirement, 0, len(productBOM)+len(packagingBOM))
	index := make(map[entities.ItemID]int)
	add := func(itemID entities.ItemID, itemType entities.ItemType, uom entities.UnitOfMeasure, qty decimal.Decimal) {
		qty = qty.Round(quantityPlaces)
		if i, ok := index[itemID]; ok {
			reqs[i].RequiredQty = reqs[i].RequiredQty.Add(qty)
			return
		}
		index[itemID] = len(reqs)
		reqs = append(reqs, entities.Requirement{
			ItemID:      itemID,
			ItemType:    itemType,
			UOM:         uom,
			RequiredQty: qty,
		})
	}

	for _, line := range productBOM {
		add(line.ItemID, entities.ItemTypeRaw, entities.UnitKG, finishedKg.Mul(line.QtyKgPerKg))
	}
	for _, line := range packagingBOM {
		uom := line.UOM
		if uom == "" {
			uom = entities.UnitEA
		}
		add(line.ItemID, entities.ItemTypePack, uom, drums.Mul(line.QtyPerDrum))
	}

	return reqs, nil
}
