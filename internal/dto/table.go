package dto

import (
	"time"

	"github.com/Additional-Code/tableside/internal/entity"
)

// TableResponse represents a table as exposed via transport layers.
type TableResponse struct {
	ID             string    `json:"id"`
	Number         int       `json:"number"`
	Capacity       int       `json:"capacity"`
	Status         string    `json:"status"`
	CurrentOrderID *string   `json:"current_order_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateTableRequest adds a table to the floor plan.
type CreateTableRequest struct {
	Number   int `json:"number" validate:"required,gte=1"`
	Capacity int `json:"capacity" validate:"required,gte=1"`
}

// TableStatusRequest forces a table status.
type TableStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied reserved"`
}

func NewTable(t entity.Table) TableResponse {
	return TableResponse{
		ID:             t.ID,
		Number:         t.Number,
		Capacity:       t.Capacity,
		Status:         string(t.Status),
		CurrentOrderID: t.CurrentOrderID,
		UpdatedAt:      t.UpdatedAt,
	}
}

func NewTables(tables []entity.Table) []TableResponse {
	out := make([]TableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, NewTable(t))
	}
	return out
}
