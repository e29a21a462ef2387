package erpdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// MasterDataStore reads products, packaging and bills of materials
type MasterDataStore struct {
	db *sqlx.DB
}

var (
	_ repositories.MasterDataRepository = (*MasterDataStore)(nil)
	_ repositories.MasterDataCatalog    = (*MasterDataStore)(nil)
)

type itemRow struct {
	ID   string `db:"id"`
	SKU  string `db:"sku"`
	Name string `db:"name"`
	Type string `db:"item_type"`
	UOM  string `db:"uom"`
}

func (r itemRow) toEntity() entities.Item {
	return entities.Item{
		ID:   entities.ItemID(r.ID),
		SKU:  r.SKU,
		Name: r.Name,
		Type: entities.ItemType(r.Type),
		UOM:  entities.UnitOfMeasure(r.UOM),
	}
}

type productRow struct {
	ID      string          `db:"id"`
	Name    string          `db:"name"`
	Density decimal.Decimal `db:"density_kg_per_l"`
}

func (r productRow) toEntity() entities.Product {
	return entities.Product{ID: entities.ProductID(r.ID), Name: r.Name, DensityKgPerL: r.Density}
}

type packagingRow struct {
	ID                 string          `db:"id"`
	Name               string          `db:"name"`
	CapacityLiters     decimal.Decimal `db:"capacity_liters"`
	NetWeightKgDefault decimal.Decimal `db:"net_weight_kg_default"`
}

func (r packagingRow) toEntity() entities.Packaging {
	return entities.Packaging{
		ID:                 entities.PackagingID(r.ID),
		Name:               r.Name,
		CapacityLiters:     r.CapacityLiters,
		NetWeightKgDefault: r.NetWeightKgDefault,
	}
}

type productBOMRow struct {
	ProductID  string          `db:"product_id"`
	ItemID     string          `db:"material_item_id"`
	QtyKgPerKg decimal.Decimal `db:"qty_kg_per_kg"`
}

func (r productBOMRow) toEntity() entities.ProductBOMLine {
	return entities.ProductBOMLine{
		ProductID:  entities.ProductID(r.ProductID),
		ItemID:     entities.ItemID(r.ItemID),
		QtyKgPerKg: r.QtyKgPerKg,
	}
}

type packagingBOMRow struct {
	PackagingID string          `db:"packaging_id"`
	ItemID      string          `db:"pack_item_id"`
	QtyPerDrum  decimal.Decimal `db:"qty_per_drum"`
	UOM         string          `db:"uom"`
}

func (r packagingBOMRow) toEntity() entities.PackagingBOMLine {
	return entities.PackagingBOMLine{
		PackagingID: entities.PackagingID(r.PackagingID),
		ItemID:      entities.ItemID(r.ItemID),
		QtyPerDrum:  r.QtyPerDrum,
		UOM:         entities.UnitOfMeasure(r.UOM),
	}
}

const (
	itemColumns         = `id, sku, name, item_type, uom`
	productColumns      = `id, name, density_kg_per_l`
	packagingColumns    = `id, name, capacity_liters, net_weight_kg_default`
	productBOMColumns   = `product_id, material_item_id, qty_kg_per_kg`
	packagingBOMColumns = `packaging_id, pack_item_id, qty_per_drum, uom`
)

func (s *MasterDataStore) get(ctx context.Context, dest interface{}, what, query string, args ...interface{}) error {
	err := s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", what, err)
	}
	return nil
}

func (s *MasterDataStore) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	var row itemRow
	if err := s.get(ctx, &row, "item "+string(id),
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, string(id)); err != nil {
		return nil, err
	}
	item := row.toEntity()
	return &item, nil
}

func (s *MasterDataStore) GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	var row productRow
	if err := s.get(ctx, &row, "product "+string(id),
		`SELECT `+productColumns+` FROM products WHERE id = ?`, string(id)); err != nil {
		return nil, err
	}
	product := row.toEntity()
	return &product, nil
}

func (s *MasterDataStore) GetPackaging(ctx context.Context, id entities.PackagingID) (*entities.Packaging, error) {
	var row packagingRow
	if err := s.get(ctx, &row, "packaging "+string(id),
		`SELECT `+packagingColumns+` FROM packaging WHERE id = ?`, string(id)); err != nil {
		return nil, err
	}
	packaging := row.toEntity()
	return &packaging, nil
}

func (s *MasterDataStore) GetPackagingSpec(
	ctx context.Context,
	productID entities.ProductID,
	packagingID entities.PackagingID,
) (*entities.PackagingSpec, error) {
	var netWeight decimal.Decimal
	if err := s.get(ctx, &netWeight, fmt.Sprintf("packaging spec %s|%s", productID, packagingID),
		`SELECT net_weight_kg FROM product_packaging_specs WHERE product_id = ? AND packaging_id = ?`,
		string(productID), string(packagingID)); err != nil {
		return nil, err
	}
	return &entities.PackagingSpec{ProductID: productID, PackagingID: packagingID, NetWeightKg: netWeight}, nil
}

func (s *MasterDataStore) GetProductBOM(ctx context.Context, productID entities.ProductID) ([]entities.ProductBOMLine, error) {
	var rows []productBOMRow
	query := `SELECT ` + productBOMColumns + ` FROM product_bom_items WHERE product_id = ? ORDER BY material_item_id`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), string(productID)); err != nil {
		return nil, fmt.Errorf("failed to get BOM of %s: %w", productID, err)
	}
	lines := make([]entities.ProductBOMLine, len(rows))
	for i, row := range rows {
		lines[i] = row.toEntity()
	}
	return lines, nil
}

func (s *MasterDataStore) GetPackagingBOM(
	ctx context.Context,
	packagingID entities.PackagingID,
) ([]entities.PackagingBOMLine, error) {
	var rows []packagingBOMRow
	query := `SELECT ` + packagingBOMColumns + ` FROM packaging_bom_items WHERE packaging_id = ? ORDER BY pack_item_id`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), string(packagingID)); err != nil {
		return nil, fmt.Errorf("failed to get packaging BOM of %s: %w", packagingID, err)
	}
	lines := make([]entities.PackagingBOMLine, len(rows))
	for i, row := range rows {
		lines[i] = row.toEntity()
	}
	return lines, nil
}

func (s *MasterDataStore) ListItems(ctx context.Context) ([]entities.Item, error) {
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+itemColumns+` FROM inventory_items ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	out := make([]entities.Item, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (s *MasterDataStore) ListProducts(ctx context.Context) ([]entities.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	out := make([]entities.Product, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (s *MasterDataStore) ListPackagings(ctx context.Context) ([]entities.Packaging, error) {
	var rows []packagingRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+packagingColumns+` FROM packaging ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list packaging: %w", err)
	}
	out := make([]entities.Packaging, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (s *MasterDataStore) ListProductBOMs(ctx context.Context) ([]entities.ProductBOMLine, error) {
	var rows []productBOMRow
	query := `SELECT ` + productBOMColumns + ` FROM product_bom_items ORDER BY product_id, material_item_id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list product BOMs: %w", err)
	}
	out := make([]entities.ProductBOMLine, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (s *MasterDataStore) ListPackagingBOMs(ctx context.Context) ([]entities.PackagingBOMLine, error) {
	var rows []packagingBOMRow
	query := `SELECT ` + packagingBOMColumns + ` FROM packaging_bom_items ORDER BY packaging_id, pack_item_id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list packaging BOMs: %w", err)
	}
	out := make([]entities.PackagingBOMLine, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}
