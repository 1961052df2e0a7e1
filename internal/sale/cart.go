// Package sale owns the point-of-sale flow: the in-progress cart, the
// finalisation transaction and the wholesale replace of an edited order.
package sale

import (
	"fmt"

	"github.com/graficaloja/backend-pdv/internal/pricing"
)

// Cart is the explicitly owned state of a sale in progress. A single operator
// mutates it at a time; it carries no synchronisation and is never shared
// between goroutines. All derived values come from the pure pricing functions,
// the cart only holds the ordered line items.
type Cart struct {
	items []pricing.LineItem
}

// Add appends a priced line item.
func (c *Cart) Add(item pricing.LineItem) {
	c.items = append(c.items, item)
}

// Update replaces the line at index i.
func (c *Cart) Update(i int, item pricing.LineItem) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("line %d out of range: %w", i, pricing.ErrInvalidInput)
	}
	c.items[i] = item
	return nil
}

// Remove deletes the line at index i, preserving the order of the rest.
func (c *Cart) Remove(i int) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("line %d out of range: %w", i, pricing.ErrInvalidInput)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the lines so callers cannot mutate cart state.
func (c *Cart) Items() []pricing.LineItem {
	out := make([]pricing.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total recomputes the cart total from the line items.
func (c *Cart) Total() float64 {
	return pricing.AggregateCart(c.items)
}
