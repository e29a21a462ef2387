package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// MasterData is the set of records the scheduler plans against
type MasterData struct {
	Items        []entities.Item
	Products     []entities.Product
	Packagings   []entities.Packaging
	ProductBOM   []entities.ProductBOMLine
	PackagingBOM []entities.PackagingBOMLine
}

// MasterDataValidator checks master data for problems that would leave campaigns unplanned
type MasterDataValidator struct{}

// NewMasterDataValidator creates a new master data validator
func NewMasterDataValidator() *MasterDataValidator {
	return &MasterDataValidator{}
}

// ValidationResult contains the results of master data validation
type ValidationResult struct {
	DuplicateIDs       []string             `json:"duplicate_ids"`
	DanglingRefs       []string             `json:"dangling_refs"`
	ProductsWithoutBOM []entities.ProductID `json:"products_without_bom"`
	Errors             []string             `json:"errors"`
	Warnings           []string             `json:"warnings"`
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate performs all checks on a master data set
func (v *MasterDataValidator) Validate(md MasterData) *ValidationResult {
	result := &ValidationResult{
		DuplicateIDs:       make([]string, 0),
		DanglingRefs:       make([]string, 0),
		ProductsWithoutBOM: make([]entities.ProductID, 0),
		Errors:             make([]string, 0),
		Warnings:           make([]string, 0),
	}

	items := v.indexItems(md.Items, result)
	products := make(map[entities.ProductID]entities.Product)
	for _, p := range md.Products {
		if _, exists := products[p.ID]; exists {
			result.DuplicateIDs = append(result.DuplicateIDs, "product:"+string(p.ID))
		}
		products[p.ID] = p
	}
	packagings := make(map[entities.PackagingID]entities.Packaging)
	for _, p := range md.Packagings {
		if _, exists := packagings[p.ID]; exists {
			result.DuplicateIDs = append(result.DuplicateIDs, "packaging:"+string(p.ID))
		}
		packagings[p.ID] = p
	}

	// Pass 1: product BOM references
	withBOM := make(map[entities.ProductID]bool)
	seen := make(map[string]bool)
	for _, line := range md.ProductBOM {
		key := fmt.Sprintf("%s|%s", line.ProductID, line.ItemID)
		if seen[key] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate product BOM line %s", key))
		}
		seen[key] = true

		if _, ok := products[line.ProductID]; !ok {
			result.DanglingRefs = append(result.DanglingRefs, "product:"+string(line.ProductID))
		}
		withBOM[line.ProductID] = true
		v.checkItem(items, line.ItemID, entities.ItemTypeRaw, "product BOM of "+string(line.ProductID), result)
	}

	// Pass 2: packaging BOM references
	for _, line := range md.PackagingBOM {
		key := fmt.Sprintf("%s|%s", line.PackagingID, line.ItemID)
		if seen[key] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate packaging BOM line %s", key))
		}
		seen[key] = true

		if _, ok := packagings[line.PackagingID]; !ok {
			result.DanglingRefs = append(result.DanglingRefs, "packaging:"+string(line.PackagingID))
		}
		v.checkItem(items, line.ItemID, entities.ItemTypePack, "packaging BOM of "+string(line.PackagingID), result)
	}

	// Pass 3: coverage warnings
	for _, p := range md.Products {
		if !withBOM[p.ID] {
			result.ProductsWithoutBOM = append(result.ProductsWithoutBOM, p.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("product %s has no BOM lines", p.ID))
		}
	}
	for _, p := range md.Packagings {
		if !p.NetWeightKgDefault.IsPositive() && !p.CapacityLiters.IsPositive() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("packaging %s has neither a default net weight nor a capacity", p.ID))
		}
	}

	if len(result.DuplicateIDs) > 0 {
		sort.Strings(result.DuplicateIDs)
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate ids found: %v", result.DuplicateIDs))
	}
	if len(result.DanglingRefs) > 0 {
		sort.Strings(result.DanglingRefs)
		result.Errors = append(result.Errors, fmt.Sprintf("BOM lines reference unknown records: %v", result.DanglingRefs))
	}

	return result
}

func (v *MasterDataValidator) indexItems(items []entities.Item, result *ValidationResult) map[entities.ItemID]entities.Item {
	index := make(map[entities.ItemID]entities.Item, len(items))
	for _, item := range items {
		if _, exists := index[item.ID]; exists {
			result.DuplicateIDs = append(result.DuplicateIDs, "item:"+string(item.ID))
		}
		index[item.ID] = item
	}
	return index
}

func (v *MasterDataValidator) checkItem(
	items map[entities.ItemID]entities.Item,
	itemID entities.ItemID,
	want entities.ItemType,
	where string,
	result *ValidationResult,
) {
	item, ok := items[itemID]
	if !ok {
		result.DanglingRefs = append(result.DanglingRefs, "item:"+string(itemID))
		return
	}
	if item.Type != want {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s uses %s item %s, expected %s", where, item.Type, itemID, want))
	}
}
