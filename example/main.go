package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/application/services/scheduler"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()
	week := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	// Create repositories
	masterData := memory.NewMasterDataRepository()
	inventory := memory.NewInventoryRepository()
	purchaseOrders := memory.NewPurchaseOrderRepository()
	jobOrders := memory.NewJobOrderRepository()

	setupCausticLine(masterData, inventory, purchaseOrders, jobOrders, week)

	s, err := scheduler.NewScheduler(scheduler.Dependencies{
		JobOrders:      jobOrders,
		Inventory:      inventory,
		PurchaseOrders: purchaseOrders,
		Procurement:    memory.NewProcurementRepository(),
		MasterData:     masterData,
		Schedules:      memory.NewScheduleRepository(),
	}, scheduler.DefaultConfig())
	if err != nil {
		fmt.Printf("failed to create scheduler: %v\n", err)
		return
	}

	fmt.Printf("Regenerating week %s...\n", entities.FormatDate(week))
	result, err := s.Regenerate(ctx, week)
	if err != nil {
		fmt.Printf("regeneration failed: %v\n", err)
		return
	}
	fmt.Println(result.Summary)
	for _, day := range result.Week.Days {
		fmt.Printf("  %s %s/%s %d drums %s\n",
			entities.FormatDate(day.Date), day.ProductID, day.PackagingID, day.PlannedDrums, day.Status)
		for _, sh := range day.Shortages {
			fmt.Printf("    short %s %s of %s\n", sh.Shortage, sh.UOM, sh.ItemID)
		}
	}
	for _, req := range result.Requisitions {
		fmt.Printf("  requisition %s with %d line(s)\n", req.ID, len(req.Lines))
	}
	fmt.Println()

	_, err = s.Approve(ctx, week, scheduler.ApproveOptions{})
	if errors.Is(err, entities.ErrNotAllReady) {
		fmt.Printf("Approval refused: %v\n", err)
		fmt.Println("Receiving the caustic order and regenerating...")
		inventory.SetOnHand("RM-NAOH", decimal.NewFromInt(80000))
		if _, err := s.Regenerate(ctx, week); err != nil {
			fmt.Printf("regeneration failed: %v\n", err)
			return
		}
		_, err = s.Approve(ctx, week, scheduler.ApproveOptions{})
	}
	if err != nil {
		fmt.Printf("approval failed: %v\n", err)
		return
	}

	fmt.Println("Reservations:")
	for _, r := range inventory.Reservations() {
		fmt.Printf("  %-10s %10s  campaign %s\n", r.ItemID, r.Quantity, r.CampaignID)
	}
}

// setupCausticLine builds one product filled into 200 L drums for three
// customers, with too little sodium hydroxide on hand
func setupCausticLine(
	masterData *memory.MasterDataRepository,
	inventory *memory.InventoryRepository,
	purchaseOrders *memory.PurchaseOrderRepository,
	jobOrders *memory.JobOrderRepository,
	week time.Time,
) {
	items := []struct {
		id       entities.ItemID
		itemType entities.ItemType
		uom      entities.UnitOfMeasure
		stock    int64
	}{
		{"RM-NAOH", entities.ItemTypeRaw, entities.UnitKG, 40000},
		{"RM-WATER", entities.ItemTypeRaw, entities.UnitKG, 200000},
		{"PK-DRUM200", entities.ItemTypePack, entities.UnitEA, 1000},
	}
	for _, it := range items {
		item, _ := entities.NewItem(it.id, string(it.id), string(it.id), it.itemType, it.uom)
		masterData.AddItem(*item)
		inventory.SetOnHand(it.id, decimal.NewFromInt(it.stock))
	}

	masterData.AddProduct(entities.Product{ID: "P-CAUSTIC", Name: "Caustic soda 50%", DensityKgPerL: decimal.RequireFromString("1.5")})
	masterData.AddPackaging(entities.Packaging{ID: "DRUM-200", Name: "200 L drum", CapacityLiters: decimal.NewFromInt(200)})

	naoh, _ := entities.NewProductBOMLine("P-CAUSTIC", "RM-NAOH", decimal.RequireFromString("0.5"))
	water, _ := entities.NewProductBOMLine("P-CAUSTIC", "RM-WATER", decimal.RequireFromString("0.5"))
	drum, _ := entities.NewPackagingBOMLine("DRUM-200", "PK-DRUM200", decimal.NewFromInt(1), entities.UnitEA)
	masterData.AddProductBOMLine(*naoh)
	masterData.AddProductBOMLine(*water)
	masterData.AddPackagingBOMLine(*drum)

	for i, drums := range []entities.Drums{120, 80, 100} {
		line, _ := entities.NewJobOrderLine(fmt.Sprintf("JO-%d", 2001+i), "P-CAUSTIC", "DRUM-200",
			drums, week.AddDate(0, 0, 2+i), entities.JobOrderPending)
		jobOrders.AddLine(*line)
	}

	// arrives Friday, after the campaign runs on Monday
	po, _ := entities.NewOpenPOLine("PO-7001", "RM-NAOH", decimal.NewFromInt(30000), decimal.Zero, week.AddDate(0, 0, 4))
	purchaseOrders.AddLine(entities.PurchaseOrderSent, *po)
}
