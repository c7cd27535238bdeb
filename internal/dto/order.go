package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableside/internal/cart"
	"github.com/Additional-Code/tableside/internal/entity"
)

// OrderItemPayload is one priced line of an order.
type OrderItemPayload struct {
	MenuItemID string          `json:"menu_item_id" validate:"required"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	Price      decimal.Decimal `json:"price"`
	Variants   []string        `json:"variants,omitempty"`
	Addons     []string        `json:"addons,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID            string             `json:"id"`
	TableID       string             `json:"table_id"`
	TableNumber   int                `json:"table_number"`
	WaiterID      *string            `json:"waiter_id,omitempty"`
	WaiterName    string             `json:"waiter_name,omitempty"`
	Items         []OrderItemPayload `json:"items"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	PaymentID     *string            `json:"payment_id,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CreateOrderRequest places an order. Either Items (already priced) or
// Lines (priced against the menu) must be given.
type CreateOrderRequest struct {
	TableID     string             `json:"table_id" validate:"required"`
	Items       []OrderItemPayload `json:"items" validate:"dive"`
	Lines       []cart.Line        `json:"lines" validate:"dive"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Notes       string             `json:"notes"`
	PayNow      bool               `json:"pay_now"`
}

// OrderStatusRequest bumps an order along the kitchen flow.
type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusLogResponse is one transition of an order.
type StatusLogResponse struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// KitchenBoardResponse lists open tickets per kitchen column.
type KitchenBoardResponse struct {
	Pending   []OrderResponse `json:"pending"`
	Preparing []OrderResponse `json:"preparing"`
	Ready     []OrderResponse `json:"ready"`
}

// CheckoutResponse carries the settled order and the gateway receipt.
type CheckoutResponse struct {
	Order   OrderResponse `json:"order"`
	Receipt any           `json:"receipt,omitempty"`
}

func (p OrderItemPayload) Entity() entity.OrderItem {
	return entity.OrderItem{
		MenuItemID: p.MenuItemID,
		Name:       p.Name,
		Quantity:   p.Quantity,
		Price:      p.Price,
		Variants:   p.Variants,
		Addons:     p.Addons,
		Notes:      p.Notes,
	}
}

func NewOrder(o entity.Order) OrderResponse {
	items := make([]OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemPayload{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Variants:   it.Variants,
			Addons:     it.Addons,
			Notes:      it.Notes,
		})
	}
	return OrderResponse{
		ID:            o.ID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		WaiterID:      o.WaiterID,
		WaiterName:    o.WaiterName,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentID:     o.PaymentID,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func NewOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrder(o))
	}
	return out
}

func NewStatusLog(entries []entity.OrderStatusLog) []StatusLogResponse {
	out := make([]StatusLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, StatusLogResponse{
			From:      string(e.FromStatus),
			To:        string(e.ToStatus),
			ChangedBy: e.ChangedBy,
			ChangedAt: e.ChangedAt,
		})
	}
	return out
}
