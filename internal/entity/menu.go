package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PriceModifier is a named variant or addon with an additive price.
type PriceModifier struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MenuCategory groups menu items for display.
type MenuCategory struct {
	bun.BaseModel `bun:"table:menu_categories"`

	ID        string `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	SortOrder int    `bun:"sort_order,notnull"`
}

// MenuItem is a sellable dish.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID          string          `bun:"id,pk"`
	Name        string          `bun:"name,notnull"`
	CategoryID  *string         `bun:"category_id"`
	Category    string          `bun:"category"`
	Price       decimal.Decimal `bun:"price,type:decimal(12,2),notnull"`
	Description string          `bun:"description"`
	ImageURL    string          `bun:"image_url"`
	Variants    []PriceModifier `bun:"variants,type:jsonb"`
	Addons      []PriceModifier `bun:"addons,type:jsonb"`
	IsAvailable bool            `bun:"is_available,notnull"`
}

// FindVariant looks up a variant by name.
func (m *MenuItem) FindVariant(name string) (PriceModifier, bool) {
	return findModifier(m.Variants, name)
}

// FindAddon looks up an addon by name.
func (m *MenuItem) FindAddon(name string) (PriceModifier, bool) {
	return findModifier(m.Addons, name)
}

func findModifier(mods []PriceModifier, name string) (PriceModifier, bool) {
	for _, mod := range mods {
		if mod.Name == name {
			return mod, true
		}
	}
	return PriceModifier{}, false
}
