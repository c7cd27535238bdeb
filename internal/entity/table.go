package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TableStatus is the occupancy state of a dining table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

// IsValid reports whether s is a known table status.
func (s TableStatus) IsValid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved:
		return true
	}
	return false
}

// Table is a fixed seat on the floor plan.
type Table struct {
	bun.BaseModel `bun:"table:restaurant_tables,alias:rt"`

	ID             string      `bun:"id,pk"`
	Number         int         `bun:"number,notnull,unique"`
	Capacity       int         `bun:"capacity,notnull"`
	Status         TableStatus `bun:"status,notnull"`
	CurrentOrderID *string     `bun:"current_order_id"`
	CreatedAt      time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time   `bun:"updated_at,nullzero"`
}

// HasOrder reports whether the table references an order.
func (t *Table) HasOrder() bool {
	return t.CurrentOrderID != nil && *t.CurrentOrderID != ""
}
