package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID identifies a finished product
type ProductID string

// PackagingID identifies a drum type
type PackagingID string

// Product is a finished chemical filled into drums
type Product struct {
	ID            ProductID       `json:"id"`
	Name          string          `json:"name"`
	DensityKgPerL decimal.Decimal `json:"density_kg_per_l"`
}

// Packaging is a drum type with its nominal volume
type Packaging struct {
	ID                 PackagingID     `json:"id"`
	Name               string          `json:"name"`
	CapacityLiters     decimal.Decimal `json:"capacity_liters"`
	NetWeightKgDefault decimal.Decimal `json:"net_weight_kg_default"`
}

// PackagingSpec overrides the net fill weight for one product in one packaging
type PackagingSpec struct {
	ProductID   ProductID       `json:"product_id"`
	PackagingID PackagingID     `json:"packaging_id"`
	NetWeightKg decimal.Decimal `json:"net_weight_kg"`
}

// ProductBOMLine is the RAW consumption of one kg of finished product
type ProductBOMLine struct {
	ProductID  ProductID       `json:"product_id"`
	ItemID     ItemID          `json:"item_id"`
	QtyKgPerKg decimal.Decimal `json:"qty_kg_per_kg"`
}

// PackagingBOMLine is the PACK consumption of one filled drum
type PackagingBOMLine struct {
	PackagingID PackagingID     `json:"packaging_id"`
	ItemID      ItemID          `json:"item_id"`
	QtyPerDrum  decimal.Decimal `json:"qty_per_drum"`
	UOM         UnitOfMeasure   `json:"uom"`
}

// NewProduct creates a new product with validation
func NewProduct(id ProductID, name string, density decimal.Decimal) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if density.IsNegative() {
		return nil, fmt.Errorf("density cannot be negative, got %s", density)
	}
	return &Product{ID: id, Name: name, DensityKgPerL: density}, nil
}

// NewPackaging creates a new packaging with validation
func NewPackaging(id PackagingID, name string, capacityLiters, netWeightDefault decimal.Decimal) (*Packaging, error) {
	if id == "" {
		return nil, fmt.Errorf("packaging id cannot be empty")
	}
	if capacityLiters.IsNegative() {
		return nil, fmt.Errorf("capacity cannot be negative, got %s", capacityLiters)
	}
	if netWeightDefault.IsNegative() {
		return nil, fmt.Errorf("default net weight cannot be negative, got %s", netWeightDefault)
	}
	return &Packaging{
		ID:                 id,
		Name:               name,
		CapacityLiters:     capacityLiters,
		NetWeightKgDefault: netWeightDefault,
	}, nil
}

// NewProductBOMLine creates a new product BOM line with validation
func NewProductBOMLine(productID ProductID, itemID ItemID, qtyKgPerKg decimal.Decimal) (*ProductBOMLine, error) {
	if productID == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !qtyKgPerKg.IsPositive() {
		return nil, fmt.Errorf("qty kg per kg must be positive, got %s", qtyKgPerKg)
	}
	return &ProductBOMLine{ProductID: productID, ItemID: itemID, QtyKgPerKg: qtyKgPerKg}, nil
}

// NewPackagingBOMLine creates a new packaging BOM line with validation
func NewPackagingBOMLine(
	packagingID PackagingID,
	itemID ItemID,
	qtyPerDrum decimal.Decimal,
	uom UnitOfMeasure,
) (*PackagingBOMLine, error) {
	if packagingID == "" {
		return nil, fmt.Errorf("packaging id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !qtyPerDrum.IsPositive() {
		return nil, fmt.Errorf("qty per drum must be positive, got %s", qtyPerDrum)
	}
	if uom == "" {
		uom = UnitEA
	}
	return &PackagingBOMLine{PackagingID: packagingID, ItemID: itemID, QtyPerDrum: qtyPerDrum, UOM: uom}, nil
}
