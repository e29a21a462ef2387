package services

import (
	"testing"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

func TestMasterDataValidator_CleanData(t *testing.T) {
	md := MasterData{
		Items: []entities.Item{
			{ID: "RM-ACID", Type: entities.ItemTypeRaw},
			{ID: "PK-DRUM", Type: entities.ItemTypePack},
		},
		Products:     []entities.Product{{ID: "P-ACID", DensityKgPerL: dec("1.2")}},
		Packagings:   []entities.Packaging{{ID: "DRUM-200", CapacityLiters: dec("200")}},
		ProductBOM:   []entities.ProductBOMLine{{ProductID: "P-ACID", ItemID: "RM-ACID", QtyKgPerKg: dec("1")}},
		PackagingBOM: []entities.PackagingBOMLine{{PackagingID: "DRUM-200", ItemID: "PK-DRUM", QtyPerDrum: dec("1")}},
	}

	result := NewMasterDataValidator().Validate(md)
	if !result.Valid() {
		t.Errorf("Expected clean master data to validate, got %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestMasterDataValidator_Problems(t *testing.T) {
	md := MasterData{
		Items: []entities.Item{
			{ID: "RM-ACID", Type: entities.ItemTypeRaw},
			{ID: "RM-ACID", Type: entities.ItemTypeRaw},
			{ID: "PK-DRUM", Type: entities.ItemTypePack},
		},
		Products: []entities.Product{
			{ID: "P-ACID"},
			{ID: "P-ORPHAN"},
		},
		Packagings: []entities.Packaging{{ID: "BARE"}},
		ProductBOM: []entities.ProductBOMLine{
			{ProductID: "P-ACID", ItemID: "RM-ACID", QtyKgPerKg: dec("1")},
			{ProductID: "P-ACID", ItemID: "RM-ACID", QtyKgPerKg: dec("1")},
			{ProductID: "P-ACID", ItemID: "PK-DRUM", QtyKgPerKg: dec("1")},
		},
		PackagingBOM: []entities.PackagingBOMLine{{PackagingID: "DRUM-200", ItemID: "RM-GHOST", QtyPerDrum: dec("1")}},
	}

	result := NewMasterDataValidator().Validate(md)
	if result.Valid() {
		t.Fatal("Expected validation errors")
	}
	if len(result.DuplicateIDs) != 1 || result.DuplicateIDs[0] != "item:RM-ACID" {
		t.Errorf("Expected duplicate item RM-ACID, got %v", result.DuplicateIDs)
	}
	if len(result.DanglingRefs) != 2 {
		t.Errorf("Expected 2 dangling references, got %v", result.DanglingRefs)
	}
	if len(result.ProductsWithoutBOM) != 1 || result.ProductsWithoutBOM[0] != "P-ORPHAN" {
		t.Errorf("Expected P-ORPHAN without BOM, got %v", result.ProductsWithoutBOM)
	}
	// duplicate line, wrong item type, duplicate ids summary, dangling summary
	if len(result.Errors) != 4 {
		t.Errorf("Expected 4 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("Expected 2 warnings, got %v", result.Warnings)
	}
}
