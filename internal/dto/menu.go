package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableside/internal/entity"
)

// MenuItemResponse represents a dish as exposed via transport layers.
type MenuItemResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	CategoryID  *string                `json:"category_id,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Price       decimal.Decimal        `json:"price"`
	Description string                 `json:"description,omitempty"`
	ImageURL    string                 `json:"image_url,omitempty"`
	Variants    []entity.PriceModifier `json:"variants"`
	Addons      []entity.PriceModifier `json:"addons"`
	IsAvailable bool                   `json:"is_available"`
}

// MenuItemRequest creates or replaces a dish.
type MenuItemRequest struct {
	Name        string                 `json:"name" validate:"required"`
	CategoryID  string                 `json:"category_id"`
	Price       decimal.Decimal        `json:"price"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"image_url" validate:"omitempty,url"`
	Variants    []entity.PriceModifier `json:"variants"`
	Addons      []entity.PriceModifier `json:"addons"`
	IsAvailable *bool                  `json:"is_available"`
}

// CategoryResponse is a menu section.
type CategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CategoryRequest creates a menu section.
type CategoryRequest struct {
	Name      string `json:"name" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func NewMenuItem(m entity.MenuItem) MenuItemResponse {
	variants, addons := m.Variants, m.Addons
	if variants == nil {
		variants = []entity.PriceModifier{}
	}
	if addons == nil {
		addons = []entity.PriceModifier{}
	}
	return MenuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		CategoryID:  m.CategoryID,
		Category:    m.Category,
		Price:       m.Price,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		Variants:    variants,
		Addons:      addons,
		IsAvailable: m.IsAvailable,
	}
}

func NewMenuItems(items []entity.MenuItem) []MenuItemResponse {
	out := make([]MenuItemResponse, 0, len(items))
	for _, m := range items {
		out = append(out, NewMenuItem(m))
	}
	return out
}

func NewCategories(cats []entity.MenuCategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name, SortOrder: c.SortOrder})
	}
	return out
}

// AvailabilityRequest toggles whether a dish can be ordered.
type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
