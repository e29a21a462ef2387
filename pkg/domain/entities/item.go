package entities

import (
	"fmt"
	"strings"
)

// ItemID represents a unique material item identifier
type ItemID string

// Drums represents a whole number of filled drums
type Drums int64

// ItemType classifies a material item as raw material or packaging
type ItemType string

const (
	ItemTypeRaw  ItemType = "RAW"
	ItemTypePack ItemType = "PACK"
)

// Valid reports whether the item type is one of the known types
func (t ItemType) Valid() bool {
	return t == ItemTypeRaw || t == ItemTypePack
}

// ParseItemType parses an item type case-insensitively
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid item type: %s (must be RAW or PACK)", s)
	}
	return t, nil
}

// UnitOfMeasure is the unit a material quantity is expressed in
type UnitOfMeasure string

const (
	UnitKG UnitOfMeasure = "KG"
	UnitEA UnitOfMeasure = "EA"
)

// Item represents a material that can be consumed by production
type Item struct {
	ID   ItemID        `json:"id"`
	SKU  string        `json:"sku"`
	Name string        `json:"name"`
	Type ItemType      `json:"type"`
	UOM  UnitOfMeasure `json:"uom"`
}

// NewItem creates a new item with validation
func NewItem(id ItemID, sku, name string, itemType ItemType, uom UnitOfMeasure) (*Item, error) {
	if id == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("item name cannot be empty")
	}
	if !itemType.Valid() {
		return nil, fmt.Errorf("invalid item type: %s", itemType)
	}
	if uom == "" {
		uom = UnitKG
		if itemType == ItemTypePack {
			uom = UnitEA
		}
	}

	return &Item{
		ID:   id,
		SKU:  sku,
		Name: name,
		Type: itemType,
		UOM:  uom,
	}, nil
}
