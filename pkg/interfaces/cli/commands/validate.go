package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/domain/repositories"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check master data for records that would leave campaigns unplanned",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := a.openRuntime(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					a.logger.Warn("failed to close runtime", zap.Error(err))
				}
			}()

			md, err := loadMasterData(ctx, rt.Catalog)
			if err != nil {
				return err
			}
			result := services.NewMasterDataValidator().Validate(md)
			if err := p.Validation(result); err != nil {
				return err
			}
			if !result.Valid() {
				return fmt.Errorf("master data has %d errors", len(result.Errors))
			}
			return nil
		},
	}
}

func loadMasterData(ctx context.Context, catalog repositories.MasterDataCatalog) (services.MasterData, error) {
	var md services.MasterData
	var err error

	if md.Items, err = catalog.ListItems(ctx); err != nil {
		return md, fmt.Errorf("failed to list items: %w", err)
	}
	if md.Products, err = catalog.ListProducts(ctx); err != nil {
		return md, fmt.Errorf("failed to list products: %w", err)
	}
	if md.Packagings, err = catalog.ListPackagings(ctx); err != nil {
		return md, fmt.Errorf("failed to list packagings: %w", err)
	}
	if md.ProductBOM, err = catalog.ListProductBOMs(ctx); err != nil {
		return md, fmt.Errorf("failed to list product BOMs: %w", err)
	}
	if md.PackagingBOM, err = catalog.ListPackagingBOMs(ctx); err != nil {
		return md, fmt.Errorf("failed to list packaging BOMs: %w", err)
	}
	return md, nil
}
