package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableside/internal/entity"
)

// InventoryItemResponse represents a stock item as exposed via transport layers.
type InventoryItemResponse struct {
	ID             string          `json:"id"`
	ItemName       string          `json:"item_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	ThresholdLevel decimal.Decimal `json:"threshold_level"`
	Category       string          `json:"category,omitempty"`
	LowStock       bool            `json:"low_stock"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InventoryItemRequest creates or replaces a stock item.
type InventoryItemRequest struct {
	ItemName       string          `json:"item_name" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit" validate:"required"`
	ThresholdLevel decimal.Decimal `json:"threshold_level"`
	Category       string          `json:"category"`
}

func NewInventoryItem(i entity.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:             i.ID,
		ItemName:       i.ItemName,
		Quantity:       i.Quantity,
		Unit:           i.Unit,
		ThresholdLevel: i.ThresholdLevel,
		Category:       i.Category,
		LowStock:       i.IsLowStock(),
		UpdatedAt:      i.UpdatedAt,
	}
}

func NewInventoryItems(items []entity.InventoryItem) []InventoryItemResponse {
	out := make([]InventoryItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, NewInventoryItem(i))
	}
	return out
}
