package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
)

// MasterDataRepository provides in-memory products, packaging and BOMs
type MasterDataRepository struct {
	mu           sync.RWMutex
	items        map[entities.ItemID]entities.Item
	products     map[entities.ProductID]entities.Product
	packagings   map[entities.PackagingID]entities.Packaging
	specs        map[string]entities.PackagingSpec
	productBOM   map[entities.ProductID][]entities.ProductBOMLine
	packagingBOM map[entities.PackagingID][]entities.PackagingBOMLine
}

// NewMasterDataRepository creates a new in-memory master data repository
func NewMasterDataRepository() *MasterDataRepository {
	return &MasterDataRepository{
		items:        make(map[entities.ItemID]entities.Item),
		products:     make(map[entities.ProductID]entities.Product),
		packagings:   make(map[entities.PackagingID]entities.Packaging),
		specs:        make(map[string]entities.PackagingSpec),
		productBOM:   make(map[entities.ProductID][]entities.ProductBOMLine),
		packagingBOM: make(map[entities.PackagingID][]entities.PackagingBOMLine),
	}
}

// Verify interface compliance
var (
	_ repositories.MasterDataRepository = (*MasterDataRepository)(nil)
	_ repositories.MasterDataCatalog    = (*MasterDataRepository)(nil)
)

func specKey(productID entities.ProductID, packagingID entities.PackagingID) string {
	return fmt.Sprintf("%s|%s", productID, packagingID)
}

// AddItem adds an item
func (r *MasterDataRepository) AddItem(item entities.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// AddProduct adds a product
func (r *MasterDataRepository) AddProduct(product entities.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

// AddPackaging adds a packaging
func (r *MasterDataRepository) AddPackaging(packaging entities.Packaging) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packagings[packaging.ID] = packaging
}

// AddPackagingSpec adds a product-specific net weight
func (r *MasterDataRepository) AddPackagingSpec(spec entities.PackagingSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[specKey(spec.ProductID, spec.PackagingID)] = spec
}

// AddProductBOMLine adds a RAW line to a product BOM
func (r *MasterDataRepository) AddProductBOMLine(line entities.ProductBOMLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productBOM[line.ProductID] = append(r.productBOM[line.ProductID], line)
}

// AddPackagingBOMLine adds a PACK line to a packaging BOM
func (r *MasterDataRepository) AddPackagingBOMLine(line entities.PackagingBOMLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packagingBOM[line.PackagingID] = append(r.packagingBOM[line.PackagingID], line)
}

// GetItem returns an item by ID
func (r *MasterDataRepository) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, repositories.ErrNotFound)
	}
	return &item, nil
}

// GetProduct returns a product by ID
func (r *MasterDataRepository) GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, repositories.ErrNotFound)
	}
	return &product, nil
}

// GetPackaging returns a packaging by ID
func (r *MasterDataRepository) GetPackaging(ctx context.Context, id entities.PackagingID) (*entities.Packaging, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	packaging, ok := r.packagings[id]
	if !ok {
		return nil, fmt.Errorf("packaging %s: %w", id, repositories.ErrNotFound)
	}
	return &packaging, nil
}

// GetPackagingSpec returns the net weight spec of product in packaging
func (r *MasterDataRepository) GetPackagingSpec(
	ctx context.Context,
	productID entities.ProductID,
	packagingID entities.PackagingID,
) (*entities.PackagingSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[specKey(productID, packagingID)]
	if !ok {
		return nil, fmt.Errorf("packaging spec %s: %w", specKey(productID, packagingID), repositories.ErrNotFound)
	}
	return &spec, nil
}

// GetProductBOM returns the RAW lines of a product
func (r *MasterDataRepository) GetProductBOM(ctx context.Context, productID entities.ProductID) ([]entities.ProductBOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.ProductBOMLine(nil), r.productBOM[productID]...), nil
}

// GetPackagingBOM returns the PACK lines of a packaging
func (r *MasterDataRepository) GetPackagingBOM(
	ctx context.Context,
	packagingID entities.PackagingID,
) ([]entities.PackagingBOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.PackagingBOMLine(nil), r.packagingBOM[packagingID]...), nil
}

// ListItems returns all items ordered by ID
func (r *MasterDataRepository) ListItems(ctx context.Context) ([]entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListProducts returns all products ordered by ID
func (r *MasterDataRepository) ListProducts(ctx context.Context) ([]entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListPackagings returns all packagings ordered by ID
func (r *MasterDataRepository) ListPackagings(ctx context.Context) ([]entities.Packaging, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.Packaging, 0, len(r.packagings))
	for _, p := range r.packagings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListProductBOMs returns every product BOM line
func (r *MasterDataRepository) ListProductBOMs(ctx context.Context) ([]entities.ProductBOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.ProductBOMLine, 0)
	for _, lines := range r.productBOM {
		out = append(out, lines...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// ListPackagingBOMs returns every packaging BOM line
func (r *MasterDataRepository) ListPackagingBOMs(ctx context.Context) ([]entities.PackagingBOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.PackagingBOMLine, 0)
	for _, lines := range r.packagingBOM {
		out = append(out, lines...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PackagingID < out[j].PackagingID })
	return out, nil
}
