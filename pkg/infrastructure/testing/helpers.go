package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/memory"
)

// PlantWeek is the Monday the plant scenario is built around
var PlantWeek = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

// Scenario bundles in-memory collaborators for one test run
type Scenario struct {
	WeekStart      time.Time
	MasterData     *memory.MasterDataRepository
	Inventory      *memory.InventoryRepository
	PurchaseOrders *memory.PurchaseOrderRepository
	JobOrders      *memory.JobOrderRepository
	Procurement    *memory.ProcurementRepository
	Schedules      *memory.ScheduleRepository
}

// NewScenario creates an empty scenario for the given week
func NewScenario(weekStart time.Time) *Scenario {
	return &Scenario{
		WeekStart:      weekStart,
		MasterData:     memory.NewMasterDataRepository(),
		Inventory:      memory.NewInventoryRepository(),
		PurchaseOrders: memory.NewPurchaseOrderRepository(),
		JobOrders:      memory.NewJobOrderRepository(),
		Procurement:    memory.NewProcurementRepository(),
		Schedules:      memory.NewScheduleRepository(),
	}
}

// Day returns the week day at offset 0 (Monday) to 6 (Sunday)
func (s *Scenario) Day(offset int) time.Time {
	return s.WeekStart.AddDate(0, 0, offset)
}

// AddItem registers a RAW or PACK item
func (s *Scenario) AddItem(id entities.ItemID, itemType entities.ItemType) *Scenario {
	item, err := entities.NewItem(id, string(id), string(id), itemType, "")
	if err != nil {
		panic(err)
	}
	s.MasterData.AddItem(*item)
	return s
}

// AddProduct registers a product with its RAW BOM as item -> kg per kg pairs
func (s *Scenario) AddProduct(id entities.ProductID, density string, bom map[entities.ItemID]string, order ...entities.ItemID) *Scenario {
	s.MasterData.AddProduct(entities.Product{ID: id, Name: string(id), DensityKgPerL: decimal.RequireFromString(density)})
	for _, item := range order {
		s.AddItem(item, entities.ItemTypeRaw)
		line, err := entities.NewProductBOMLine(id, item, decimal.RequireFromString(bom[item]))
		if err != nil {
			panic(err)
		}
		s.MasterData.AddProductBOMLine(*line)
	}
	return s
}

// AddPackaging registers a packaging with one of each PACK item per drum
func (s *Scenario) AddPackaging(id entities.PackagingID, capacityLiters, netWeightDefault string, packItems ...entities.ItemID) *Scenario {
	s.MasterData.AddPackaging(entities.Packaging{
		ID:                 id,
		Name:               string(id),
		CapacityLiters:     decimal.RequireFromString(capacityLiters),
		NetWeightKgDefault: decimal.RequireFromString(netWeightDefault),
	})
	for _, item := range packItems {
		s.AddItem(item, entities.ItemTypePack)
		line, err := entities.NewPackagingBOMLine(id, item, decimal.NewFromInt(1), entities.UnitEA)
		if err != nil {
			panic(err)
		}
		s.MasterData.AddPackagingBOMLine(*line)
	}
	return s
}

// AddSpec overrides the net weight of a product in a packaging
func (s *Scenario) AddSpec(product entities.ProductID, packaging entities.PackagingID, netWeightKg string) *Scenario {
	s.MasterData.AddPackagingSpec(entities.PackagingSpec{
		ProductID:   product,
		PackagingID: packaging,
		NetWeightKg: decimal.RequireFromString(netWeightKg),
	})
	return s
}

// AddJob adds a job order line
func (s *Scenario) AddJob(
	job string,
	product entities.ProductID,
	packaging entities.PackagingID,
	drums entities.Drums,
	due time.Time,
	status entities.JobOrderStatus,
) *Scenario {
	line, err := entities.NewJobOrderLine(job, product, packaging, drums, due, status)
	if err != nil {
		panic(err)
	}
	s.JobOrders.AddLine(*line)
	return s
}

// SetStock sets the on-hand quantity of an item
func (s *Scenario) SetStock(item entities.ItemID, qty int64) *Scenario {
	s.Inventory.SetOnHand(item, decimal.NewFromInt(qty))
	return s
}

// AddPO adds an open purchase order line
func (s *Scenario) AddPO(
	po string,
	status entities.PurchaseOrderStatus,
	item entities.ItemID,
	qty int64,
	promised time.Time,
) *Scenario {
	line, err := entities.NewOpenPOLine(po, item, decimal.NewFromInt(qty), decimal.Zero, promised)
	if err != nil {
		panic(err)
	}
	s.PurchaseOrders.AddLine(status, *line)
	return s
}

// BuildPlantScenario builds a week with three placeable campaigns, one
// unplanned product and an acid shortage on Tuesday.
//
//	Mon: P-SOLVENT/JERRY-25 150 drums, P-CAUSTIC/DRUM-200 400 drums
//	Tue: P-ACID/DRUM-200 500 drums, short 6250 kg of RM-ACID
func BuildPlantScenario() *Scenario {
	s := NewScenario(PlantWeek)

	s.AddProduct("P-ACID", "1.2",
		map[entities.ItemID]string{"RM-ACID": "0.85", "RM-WATER": "0.15"}, "RM-ACID", "RM-WATER")
	s.AddProduct("P-CAUSTIC", "1.5",
		map[entities.ItemID]string{"RM-NAOH": "0.5", "RM-WATER": "0.5"}, "RM-NAOH", "RM-WATER")
	s.AddProduct("P-SOLVENT", "0.8",
		map[entities.ItemID]string{"RM-SOLV": "1"}, "RM-SOLV")
	s.AddProduct("P-NOBOM", "1.0", nil)

	s.AddPackaging("DRUM-200", "200", "0", "PK-DRUM200", "PK-CAP")
	s.AddPackaging("JERRY-25", "25", "25", "PK-JERRY")
	s.AddSpec("P-ACID", "DRUM-200", "250")

	s.AddJob("JO-1001", "P-ACID", "DRUM-200", 300, s.Day(2), entities.JobOrderPending)
	s.AddJob("JO-1002", "P-ACID", "DRUM-200", 200, s.Day(4), entities.JobOrderInProduction)
	s.AddJob("JO-1003", "P-CAUSTIC", "DRUM-200", 400, s.Day(3), entities.JobOrderPending)
	s.AddJob("JO-1004", "P-SOLVENT", "JERRY-25", 150, s.Day(1), entities.JobOrderPending)
	s.AddJob("JO-1005", "P-ACID", "DRUM-200", 80, s.Day(1), entities.JobOrderDispatched)
	s.AddJob("JO-1006", "P-NOBOM", "DRUM-200", 50, s.Day(3), entities.JobOrderPending)

	s.SetStock("RM-SOLV", 5000)
	s.SetStock("PK-JERRY", 200)
	s.SetStock("RM-NAOH", 60000)
	s.SetStock("RM-WATER", 100000)
	s.SetStock("RM-ACID", 100000)
	s.SetStock("PK-DRUM200", 600)
	s.SetStock("PK-CAP", 2000)

	s.AddPO("PO-9001", entities.PurchaseOrderSent, "PK-DRUM200", 300, s.Day(1))
	s.AddPO("PO-9002", entities.PurchaseOrderSent, "RM-ACID", 10000, s.Day(4))
	s.AddPO("PO-9003", entities.PurchaseOrderDraft, "RM-ACID", 50000, s.Day(0))

	return s
}
