package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestPriceLineItemQuantityMode(t *testing.T) {
	product := Product{Ref: "p1", Name: "Cartão de visita", BasePrice: 0.25}
	item, err := PriceLineItem(product, 1000, LineParams{Mode: ModeQuantity}, PriceInput{})
	if err != nil {
		t.Fatalf("price line item: %v", err)
	}
	if item.Total != 250 {
		t.Fatalf("expected total 250, got %v", item.Total)
	}
	if item.UnitPrice != 0.25 {
		t.Fatalf("expected unit price 0.25, got %v", item.UnitPrice)
	}
}

func TestPriceLineItemVariationSelectsPrice(t *testing.T) {
	product := Product{
		Name:      "Flyer",
		BasePrice: 0.10,
		Variations: []Variation{
			{Label: "couché 115g", UnitPrice: 0.18},
			{Label: "couché 170g", UnitPrice: 0.30},
		},
	}
	item, err := PriceLineItem(product, 500, LineParams{Variation: "couché 170g"}, PriceInput{})
	if err != nil {
		t.Fatalf("price line item: %v", err)
	}
	if item.UnitPrice != 0.30 {
		t.Fatalf("expected variation price 0.30, got %v", item.UnitPrice)
	}
	if item.Total != 150 {
		t.Fatalf("expected total 150, got %v", item.Total)
	}
	if item.VariationLabel != "couché 170g" {
		t.Fatalf("unexpected variation label %q", item.VariationLabel)
	}
}

func TestPriceLineItemUnknownVariation(t *testing.T) {
	product := Product{Name: "Flyer", BasePrice: 0.10}
	_, err := PriceLineItem(product, 10, LineParams{Variation: "glitter"}, PriceInput{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPriceLineItemAreaMode(t *testing.T) {
	product := Product{Name: "Lona", BasePrice: 10}
	item, err := PriceLineItem(product, 1, LineParams{Mode: ModeArea, Width: 2, Height: 3}, PriceInput{})
	if err != nil {
		t.Fatalf("price line item: %v", err)
	}
	if item.Total != 60 {
		t.Fatalf("expected total 60, got %v", item.Total)
	}
}

func TestPriceLineItemAreaModeRequiresDimensions(t *testing.T) {
	product := Product{Name: "Lona", BasePrice: 10}
	cases := []LineParams{
		{Mode: ModeArea},
		{Mode: ModeArea, Width: 2},
		{Mode: ModeArea, Width: -1, Height: 3},
		{Mode: ModeArea, Width: 2, Height: math.Inf(1)},
		{Mode: ModeArea, Width: math.NaN(), Height: 1},
	}
	for _, params := range cases {
		if _, err := PriceLineItem(product, 1, params, PriceInput{}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("params %+v: expected ErrInvalidInput, got %v", params, err)
		}
	}
}

func TestPriceLineItemRejectsNonPositiveQuantity(t *testing.T) {
	product := Product{Name: "Flyer", BasePrice: 1}
	for _, qty := range []int{0, -3} {
		if _, err := PriceLineItem(product, qty, LineParams{}, PriceInput{}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("qty %d: expected ErrInvalidInput, got %v", qty, err)
		}
	}
}

func TestLastEditedFieldWins(t *testing.T) {
	product := Product{Name: "Adesivo", BasePrice: 2}

	// Operator overrides the unit price: total follows.
	item, err := PriceLineItem(product, 4, LineParams{}, UnitPriceEntered(3))
	if err != nil {
		t.Fatalf("unit price entered: %v", err)
	}
	if item.Total != 12 || item.UnitPrice != 3 {
		t.Fatalf("expected unit 3 / total 12, got unit %v / total %v", item.UnitPrice, item.Total)
	}

	// Operator overrides the total: the implied unit price follows.
	item, err = PriceLineItem(product, 4, LineParams{}, TotalEntered(10))
	if err != nil {
		t.Fatalf("total entered: %v", err)
	}
	if item.Total != 10 || item.UnitPrice != 2.5 {
		t.Fatalf("expected unit 2.5 / total 10, got unit %v / total %v", item.UnitPrice, item.Total)
	}
	if item.UnitPrice*float64(item.Quantity) != item.Total {
		t.Fatal("invariant total == unitPrice*qty broken after total edit")
	}
}

func TestTotalEnteredAreaModeImpliedUnit(t *testing.T) {
	product := Product{Name: "Lona", BasePrice: 10}
	item, err := PriceLineItem(product, 2, LineParams{Mode: ModeArea, Width: 2, Height: 1.5}, TotalEntered(90))
	if err != nil {
		t.Fatalf("price line item: %v", err)
	}
	// implied unit = 90 / (2*1.5*2)
	if item.UnitPrice != 15 {
		t.Fatalf("expected implied unit 15, got %v", item.UnitPrice)
	}
}

func TestTotalEnteredRejectsNegative(t *testing.T) {
	product := Product{Name: "Flyer", BasePrice: 1}
	if _, err := PriceLineItem(product, 2, LineParams{}, TotalEntered(-5)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAggregateCartIdempotent(t *testing.T) {
	items := []LineItem{
		{Total: 10.10},
		{Total: 0.30},
		{Total: 99.99},
	}
	first := AggregateCart(items)
	second := AggregateCart(items)
	if math.Float64bits(first) != math.Float64bits(second) {
		t.Fatalf("aggregate not idempotent: %v vs %v", first, second)
	}
}
