package sale

import (
	"testing"

	"github.com/graficaloja/backend-pdv/internal/pricing"
)

func line(total float64) pricing.LineItem {
	return pricing.LineItem{Name: "item", Quantity: 1, UnitPrice: total, Total: total, Mode: pricing.ModeQuantity}
}

func TestCartAddRemoveTotal(t *testing.T) {
	c := &Cart{}
	c.Add(line(10))
	c.Add(line(25.5))
	c.Add(line(4.5))
	if got := c.Total(); got != 40 {
		t.Fatalf("total = %v, want 40", got)
	}
	if err := c.Remove(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := c.Total(); got != 14.5 {
		t.Fatalf("total after remove = %v, want 14.5", got)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}

func TestCartUpdateReplacesLine(t *testing.T) {
	c := &Cart{}
	c.Add(line(10))
	if err := c.Update(0, line(99)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := c.Total(); got != 99 {
		t.Fatalf("total = %v, want 99", got)
	}
}

func TestCartIndexOutOfRange(t *testing.T) {
	c := &Cart{}
	c.Add(line(10))
	if err := c.Update(3, line(1)); err == nil {
		t.Fatal("expected error updating out-of-range line")
	}
	if err := c.Remove(-1); err == nil {
		t.Fatal("expected error removing out-of-range line")
	}
}

func TestCartItemsReturnsCopy(t *testing.T) {
	c := &Cart{}
	c.Add(line(10))
	items := c.Items()
	items[0].Total = 1000
	if got := c.Total(); got != 10 {
		t.Fatalf("cart mutated through Items copy, total = %v", got)
	}
}

func TestCartClear(t *testing.T) {
	c := &Cart{}
	c.Add(line(10))
	c.Clear()
	if c.Len() != 0 || c.Total() != 0 {
		t.Fatalf("clear left len=%d total=%v", c.Len(), c.Total())
	}
}
