package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ErrMissingFile is returned when an optional CSV file does not exist
var ErrMissingFile = errors.New("csv file not found")

// Loader handles loading scheduling data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems loads material items from a CSV file
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	expectedHeader := []string{"item_id", "sku", "name", "item_type", "uom"}
	records, err := readRecords(filename, "items", expectedHeader)
	if err != nil {
		return nil, err
	}

	items := make([]*entities.Item, 0, len(records))
	for i, record := range records {
		itemType, err := entities.ParseItemType(record[3])
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		uom := entities.UnitOfMeasure(strings.ToUpper(strings.TrimSpace(record[4])))
		item, err := entities.NewItem(entities.ItemID(record[0]), record[1], record[2], itemType, uom)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadProducts loads finished products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	expectedHeader := []string{"product_id", "name", "density_kg_per_l"}
	records, err := readRecords(filename, "products", expectedHeader)
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(records))
	for i, record := range records {
		density, err := parseDecimal(record[2], "density_kg_per_l", true)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		product, err := entities.NewProduct(entities.ProductID(record[0]), record[1], density)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}

	return products, nil
}

// LoadPackagings loads drum types from a CSV file
func (l *Loader) LoadPackagings(filename string) ([]*entities.Packaging, error) {
	expectedHeader := []string{"packaging_id", "name", "capacity_liters", "net_weight_kg_default"}
	records, err := readRecords(filename, "packaging", expectedHeader)
	if err != nil {
		return nil, err
	}

	packagings := make([]*entities.Packaging, 0, len(records))
	for i, record := range records {
		capacity, err := parseDecimal(record[2], "capacity_liters", true)
		if err != nil {
			return nil, fmt.Errorf("packaging CSV row %d: %w", i+2, err)
		}
		netWeight, err := parseDecimal(record[3], "net_weight_kg_default", true)
		if err != nil {
			return nil, fmt.Errorf("packaging CSV row %d: %w", i+2, err)
		}
		packaging, err := entities.NewPackaging(entities.PackagingID(record[0]), record[1], capacity, netWeight)
		if err != nil {
			return nil, fmt.Errorf("packaging CSV row %d: %w", i+2, err)
		}
		packagings = append(packagings, packaging)
	}

	return packagings, nil
}

// LoadPackagingSpecs loads per-product net weight overrides from a CSV file
func (l *Loader) LoadPackagingSpecs(filename string) ([]*entities.PackagingSpec, error) {
	expectedHeader := []string{"product_id", "packaging_id", "net_weight_kg"}
	records, err := readRecords(filename, "packaging specs", expectedHeader)
	if err != nil {
		return nil, err
	}

	specs := make([]*entities.PackagingSpec, 0, len(records))
	for i, record := range records {
		netWeight, err := parseDecimal(record[2], "net_weight_kg", false)
		if err != nil {
			return nil, fmt.Errorf("packaging specs CSV row %d: %w", i+2, err)
		}
		specs = append(specs, &entities.PackagingSpec{
			ProductID:   entities.ProductID(record[0]),
			PackagingID: entities.PackagingID(record[1]),
			NetWeightKg: netWeight,
		})
	}

	return specs, nil
}

// LoadProductBOM loads RAW consumption per kg of product from a CSV file
func (l *Loader) LoadProductBOM(filename string) ([]*entities.ProductBOMLine, error) {
	expectedHeader := []string{"product_id", "item_id", "qty_kg_per_kg"}
	records, err := readRecords(filename, "product BOM", expectedHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.ProductBOMLine, 0, len(records))
	for i, record := range records {
		qty, err := parseDecimal(record[2], "qty_kg_per_kg", false)
		if err != nil {
			return nil, fmt.Errorf("product BOM CSV row %d: %w", i+2, err)
		}
		line, err := entities.NewProductBOMLine(entities.ProductID(record[0]), entities.ItemID(record[1]), qty)
		if err != nil {
			return nil, fmt.Errorf("product BOM CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// LoadPackagingBOM loads PACK consumption per drum from a CSV file
func (l *Loader) LoadPackagingBOM(filename string) ([]*entities.PackagingBOMLine, error) {
	expectedHeader := []string{"packaging_id", "item_id", "qty_per_drum", "uom"}
	records, err := readRecords(filename, "packaging BOM", expectedHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.PackagingBOMLine, 0, len(records))
	for i, record := range records {
		qty, err := parseDecimal(record[2], "qty_per_drum", false)
		if err != nil {
			return nil, fmt.Errorf("packaging BOM CSV row %d: %w", i+2, err)
		}
		uom := entities.UnitOfMeasure(strings.ToUpper(strings.TrimSpace(record[3])))
		line, err := entities.NewPackagingBOMLine(entities.PackagingID(record[0]), entities.ItemID(record[1]), qty, uom)
		if err != nil {
			return nil, fmt.Errorf("packaging BOM CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// StockLevel is one on-hand row of the inventory file
type StockLevel struct {
	ItemID entities.ItemID
	OnHand decimal.Decimal
}

// LoadInventory loads on-hand stock from a CSV file
func (l *Loader) LoadInventory(filename string) ([]StockLevel, error) {
	expectedHeader := []string{"item_id", "on_hand"}
	records, err := readRecords(filename, "inventory", expectedHeader)
	if err != nil {
		return nil, err
	}

	levels := make([]StockLevel, 0, len(records))
	for i, record := range records {
		if record[0] == "" {
			return nil, fmt.Errorf("inventory CSV row %d: item_id cannot be empty", i+2)
		}
		// negative stock is kept as booked; availability floors it
		onHand, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: invalid on_hand: %s", i+2, record[1])
		}
		levels = append(levels, StockLevel{ItemID: entities.ItemID(record[0]), OnHand: onHand})
	}

	return levels, nil
}

// PurchaseOrderLine is one row of the purchase order file
type PurchaseOrderLine struct {
	Status entities.PurchaseOrderStatus
	Line   entities.OpenPOLine
}

// LoadPurchaseOrders loads purchase order lines from a CSV file
func (l *Loader) LoadPurchaseOrders(filename string) ([]PurchaseOrderLine, error) {
	expectedHeader := []string{"po_number", "status", "item_id", "ordered_qty", "received_qty", "promised_date"}
	records, err := readRecords(filename, "purchase orders", expectedHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]PurchaseOrderLine, 0, len(records))
	for i, record := range records {
		status, err := parsePurchaseOrderStatus(record[1])
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		ordered, err := parseDecimal(record[3], "ordered_qty", true)
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		received, err := parseDecimal(record[4], "received_qty", true)
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		promised, err := entities.ParseDate(record[5])
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: invalid promised_date: %w", i+2, err)
		}
		line, err := entities.NewOpenPOLine(record[0], entities.ItemID(record[2]), ordered, received, promised)
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		lines = append(lines, PurchaseOrderLine{Status: status, Line: *line})
	}

	return lines, nil
}

// LoadJobOrders loads job order lines from a CSV file
func (l *Loader) LoadJobOrders(filename string) ([]*entities.JobOrderLine, error) {
	expectedHeader := []string{"job_number", "product_id", "packaging_id", "drums", "delivery_date", "status"}
	records, err := readRecords(filename, "job orders", expectedHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.JobOrderLine, 0, len(records))
	for i, record := range records {
		drums, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("job orders CSV row %d: invalid drums: %s", i+2, record[3])
		}
		delivery, err := entities.ParseDate(record[4])
		if err != nil {
			return nil, fmt.Errorf("job orders CSV row %d: invalid delivery_date: %w", i+2, err)
		}
		status, err := parseJobOrderStatus(record[5])
		if err != nil {
			return nil, fmt.Errorf("job orders CSV row %d: %w", i+2, err)
		}
		line, err := entities.NewJobOrderLine(
			record[0],
			entities.ProductID(record[1]),
			entities.PackagingID(record[2]),
			entities.Drums(drums),
			delivery,
			status,
		)
		if err != nil {
			return nil, fmt.Errorf("job orders CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// Helper functions for parsing CSV records

// readRecords returns the data rows of a file after checking its header
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s file %s", ErrMissingFile, kind, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}

	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseDecimal(s, field string, allowZero bool) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	if d.IsNegative() || (!allowZero && d.IsZero()) {
		return decimal.Zero, fmt.Errorf("invalid %s: %s (must be positive)", field, s)
	}
	return d, nil
}

func parseJobOrderStatus(s string) (entities.JobOrderStatus, error) {
	switch status := entities.JobOrderStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case entities.JobOrderPending, entities.JobOrderInProduction, entities.JobOrderReady,
		entities.JobOrderDispatched, entities.JobOrderCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status: %s (expected: pending, in_production, ready, dispatched or cancelled)", s)
	}
}

func parsePurchaseOrderStatus(s string) (entities.PurchaseOrderStatus, error) {
	switch status := entities.PurchaseOrderStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case entities.PurchaseOrderDraft, entities.PurchaseOrderApproved, entities.PurchaseOrderSent,
		entities.PurchaseOrderPartial, entities.PurchaseOrderReceived, entities.PurchaseOrderClosed:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status: %s (expected: DRAFT, APPROVED, SENT, PARTIAL, RECEIVED or CLOSED)", s)
	}
}
