package csv

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/memory"
)

// Scenario file names inside a scenario directory
const (
	ItemsFile          = "items.csv"
	ProductsFile       = "products.csv"
	PackagingFile      = "packaging.csv"
	PackagingSpecsFile = "packaging_specs.csv"
	ProductBOMFile     = "product_bom.csv"
	PackagingBOMFile   = "packaging_bom.csv"
	InventoryFile      = "inventory.csv"
	PurchaseOrdersFile = "purchase_orders.csv"
	JobOrdersFile      = "job_orders.csv"
)

// Dataset holds the in-memory collaborators loaded from a scenario directory
type Dataset struct {
	MasterData     *memory.MasterDataRepository
	Inventory      *memory.InventoryRepository
	PurchaseOrders *memory.PurchaseOrderRepository
	JobOrders      *memory.JobOrderRepository
}

// LoadScenario reads every scenario file of dir into memory repositories.
// packaging_specs.csv and purchase_orders.csv are optional.
func (l *Loader) LoadScenario(dir string) (*Dataset, error) {
	ds := &Dataset{
		MasterData:     memory.NewMasterDataRepository(),
		Inventory:      memory.NewInventoryRepository(),
		PurchaseOrders: memory.NewPurchaseOrderRepository(),
		JobOrders:      memory.NewJobOrderRepository(),
	}
	path := func(name string) string { return filepath.Join(dir, name) }

	items, err := l.LoadItems(path(ItemsFile))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		ds.MasterData.AddItem(*item)
	}

	products, err := l.LoadProducts(path(ProductsFile))
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		ds.MasterData.AddProduct(*product)
	}

	packagings, err := l.LoadPackagings(path(PackagingFile))
	if err != nil {
		return nil, err
	}
	for _, packaging := range packagings {
		ds.MasterData.AddPackaging(*packaging)
	}

	specs, err := l.LoadPackagingSpecs(path(PackagingSpecsFile))
	if err != nil && !errors.Is(err, ErrMissingFile) {
		return nil, err
	}
	for _, spec := range specs {
		ds.MasterData.AddPackagingSpec(*spec)
	}

	productBOM, err := l.LoadProductBOM(path(ProductBOMFile))
	if err != nil {
		return nil, err
	}
	for _, line := range productBOM {
		ds.MasterData.AddProductBOMLine(*line)
	}

	packagingBOM, err := l.LoadPackagingBOM(path(PackagingBOMFile))
	if err != nil {
		return nil, err
	}
	for _, line := range packagingBOM {
		ds.MasterData.AddPackagingBOMLine(*line)
	}

	stock, err := l.LoadInventory(path(InventoryFile))
	if err != nil {
		return nil, err
	}
	for _, level := range stock {
		ds.Inventory.SetOnHand(level.ItemID, level.OnHand)
	}

	poLines, err := l.LoadPurchaseOrders(path(PurchaseOrdersFile))
	if err != nil && !errors.Is(err, ErrMissingFile) {
		return nil, err
	}
	for _, po := range poLines {
		ds.PurchaseOrders.AddLine(po.Status, po.Line)
	}

	jobLines, err := l.LoadJobOrders(path(JobOrdersFile))
	if err != nil {
		return nil, err
	}
	if err := ds.JobOrders.LoadLines(jobLines); err != nil {
		return nil, fmt.Errorf("failed to load job orders: %w", err)
	}

	return ds, nil
}
