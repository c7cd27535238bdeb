// Package cart holds the point-of-sale basket before it becomes an order.
package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// Line is one basket entry. Name and UnitPrice are snapshots filled from the menu.
type Line struct {
	MenuItemID string          `json:"menu_item_id" validate:"required"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Variants   []string        `json:"variants,omitempty"`
	Addons     []string        `json:"addons,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// LineTotal is quantity times unit price.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) sameSelection(o Line) bool {
	return l.MenuItemID == o.MenuItemID &&
		slices.Equal(l.Variants, o.Variants) &&
		slices.Equal(l.Addons, o.Addons)
}

// Cart is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns a cart seeded with lines, merged as by Add.
func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		c.Add(l)
	}
	return c
}

// Add appends l, or bumps the quantity of a line with the same item,
// variants and addons. Quantities below one count as one.
func (c *Cart) Add(l Line) {
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].sameSelection(l) {
			c.lines[i].Quantity += l.Quantity
			return
		}
	}
	c.lines = append(c.lines, l)
}

// Remove drops the line at index; out of range is a no-op.
func (c *Cart) Remove(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines = slices.Delete(c.lines, index, index+1)
}

// SetQuantity changes the quantity at index; zero or less removes the line.
func (c *Cart) SetQuantity(index, quantity int) {
	if quantity <= 0 {
		c.Remove(index)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines[index].Quantity = quantity
}

// Lines returns a copy of the basket.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
