package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus drives the kitchen board.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderPaid      OrderStatus = "paid"
)

// ActiveOrderStatuses lists every status that keeps a table occupied.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed}

// KitchenStatuses are the columns of the kitchen display.
var KitchenStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderServed, OrderPaid:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderPaid
}

// Next returns the status a kitchen bump moves to, or "" when there is none.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case OrderPending:
		return OrderPreparing
	case OrderPreparing:
		return OrderReady
	case OrderReady:
		return OrderServed
	}
	return ""
}

// CanAdvanceTo reports whether a plain status bump may move s to target.
// Paid is excluded: it is only reachable through payment.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	next := s.Next()
	return next != "" && next == target
}

// CanBePaid reports whether payment may complete an order in status s.
func (s OrderStatus) CanBePaid() bool {
	return s.IsValid() && !s.IsTerminal()
}

// PaymentStatus tracks the financial state of an order.
type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "unpaid"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentRefunded   PaymentStatus = "refunded"
)

// OrderItem is a line of an order. Name and price are snapshots of the menu at
// order time and are never re-joined against the menu.
type OrderItem struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Variants   []string        `json:"variants"`
	Addons     []string        `json:"addons"`
	Notes      string          `json:"notes,omitempty"`
}

// LineTotal is quantity times the unit price snapshot.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a ticket sent to the kitchen for one table.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            string          `bun:"id,pk"`
	TableID       string          `bun:"table_id,notnull"`
	TableNumber   int             `bun:"table_number"`
	WaiterID      *string         `bun:"waiter_id"`
	WaiterName    string          `bun:"waiter_name"`
	Items         []OrderItem     `bun:"items,type:jsonb"`
	TotalAmount   decimal.Decimal `bun:"total_amount,type:decimal(12,2),notnull"`
	Status        OrderStatus     `bun:"status,notnull"`
	PaymentStatus PaymentStatus   `bun:"payment_status,notnull"`
	PaymentID     *string         `bun:"payment_id"`
	Notes         *string         `bun:"notes"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero"`
}

// SumItems returns the sum of all line totals.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// OrderStatusLog records one status transition of an order.
type OrderStatusLog struct {
	bun.BaseModel `bun:"table:order_status_log"`

	ID         int64       `bun:",pk,autoincrement"`
	OrderID    string      `bun:"order_id,notnull"`
	FromStatus OrderStatus `bun:"from_status"`
	ToStatus   OrderStatus `bun:"to_status,notnull"`
	ChangedBy  string      `bun:"changed_by"`
	ChangedAt  time.Time   `bun:"changed_at,notnull"`
}
