package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// InventoryItem is a stocked ingredient or supply.
type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory_items"`

	ID             string          `bun:"id,pk"`
	ItemName       string          `bun:"item_name,notnull"`
	Quantity       decimal.Decimal `bun:"quantity,type:decimal(12,3),notnull"`
	Unit           string          `bun:"unit,notnull"`
	ThresholdLevel decimal.Decimal `bun:"threshold_level,type:decimal(12,3),notnull"`
	Category       string          `bun:"category"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero"`
}

// IsLowStock reports whether the quantity has dropped to the threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.ThresholdLevel)
}

// RestockLevel is the quantity a restock brings the item back to.
func (i *InventoryItem) RestockLevel() decimal.Decimal {
	return i.ThresholdLevel.Mul(decimal.NewFromInt(3))
}
