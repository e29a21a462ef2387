package repositories

import (
	"context"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// MasterDataRepository provides products, packaging and bills of materials
type MasterDataRepository interface {
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)
	GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error)
	GetPackaging(ctx context.Context, id entities.PackagingID) (*entities.Packaging, error)
	GetPackagingSpec(
		ctx context.Context,
		productID entities.ProductID,
		packagingID entities.PackagingID,
	) (*entities.PackagingSpec, error)
	GetProductBOM(ctx context.Context, productID entities.ProductID) ([]entities.ProductBOMLine, error)
	GetPackagingBOM(ctx context.Context, packagingID entities.PackagingID) ([]entities.PackagingBOMLine, error)
}

// MasterDataCatalog lists every master record for validation
type MasterDataCatalog interface {
	ListItems(ctx context.Context) ([]entities.Item, error)
	ListProducts(ctx context.Context) ([]entities.Product, error)
	ListPackagings(ctx context.Context) ([]entities.Packaging, error)
	ListProductBOMs(ctx context.Context) ([]entities.ProductBOMLine, error)
	ListPackagingBOMs(ctx context.Context) ([]entities.PackagingBOMLine, error)
}
