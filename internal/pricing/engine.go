// Package pricing computes line item totals and payment allocations for a
// sale. All functions are pure: they take cart configuration as input and
// return derived values without touching storage or ambient state.
//
// Amounts are carried as float64 currency values and only formatted to two
// decimals at presentation time. Totals are always re-derived from their
// source fields, never accumulated across calls.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when pricing inputs fail validation.
var ErrInvalidInput = errors.New("invalid pricing input")

// Mode selects how a line item total is derived.
type Mode string

const (
	// ModeQuantity prices by unit: total = unit price * qty.
	ModeQuantity Mode = "quantity"
	// ModeArea prices by square unit: total = width * height * unit price * qty.
	ModeArea Mode = "area"
)

// Variation is a named price option of a product (e.g. paper weight, finish).
type Variation struct {
	Label     string  `json:"label"`
	UnitPrice float64 `json:"unitPrice"`
}

// Product carries the catalog data the engine needs to price a line.
type Product struct {
	Ref        string
	Name       string
	BasePrice  float64
	Variations []Variation
}

// LineItem is a priced entry of a cart. UnitPrice and Total always satisfy
// the mode's invariant: total == unitPrice*qty (quantity mode) or
// total == width*height*unitPrice*qty (area mode).
type LineItem struct {
	ProductRef     string  `json:"productRef,omitempty"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       int     `json:"quantity"`
	Total          float64 `json:"total"`
	Mode           Mode    `json:"mode"`
	VariationLabel string  `json:"variationLabel,omitempty"`
	FinishingLabel string  `json:"finishingLabel,omitempty"`
	Note           string  `json:"note,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
}

// LineParams carries the per-line configuration chosen at the counter.
type LineParams struct {
	Mode      Mode
	Variation string
	Finishing string
	Note      string
	Width     float64
	Height    float64
}

type priceInputKind int

const (
	priceInputCatalog priceInputKind = iota
	priceInputUnit
	priceInputTotal
)

// PriceInput records which monetary field the operator edited last. The
// edited field is authoritative and the other one is derived from it. The
// zero value means no manual edit: the catalog price drives the line.
type PriceInput struct {
	kind  priceInputKind
	value float64
}

// UnitPriceEntered marks the unit price as the authoritative field.
func UnitPriceEntered(value float64) PriceInput {
	return PriceInput{kind: priceInputUnit, value: value}
}

// TotalEntered marks the line total as the authoritative field; the implied
// unit price is back-computed from it.
func TotalEntered(value float64) PriceInput {
	return PriceInput{kind: priceInputTotal, value: value}
}

// PriceLineItem derives a priced line item from a product, a quantity and the
// selected configuration. Quantity must be a positive integer; area mode
// additionally requires finite positive width and height.
func PriceLineItem(product Product, qty int, params LineParams, input PriceInput) (LineItem, error) {
	if qty <= 0 {
		return LineItem{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	mode := params.Mode
	if mode == "" {
		mode = ModeQuantity
	}
	if mode != ModeQuantity && mode != ModeArea {
		return LineItem{}, fmt.Errorf("unknown pricing mode %q: %w", params.Mode, ErrInvalidInput)
	}

	item := LineItem{
		ProductRef:     product.Ref,
		Name:           product.Name,
		Quantity:       qty,
		Mode:           mode,
		VariationLabel: params.Variation,
		FinishingLabel: params.Finishing,
		Note:           params.Note,
	}

	unit := product.BasePrice
	if params.Variation != "" {
		v, ok := findVariation(product.Variations, params.Variation)
		if !ok {
			return LineItem{}, fmt.Errorf("variation %q not found: %w", params.Variation, ErrInvalidInput)
		}
		unit = v.UnitPrice
	}

	// factor turns a unit price into a line total for the selected mode.
	factor := float64(qty)
	if mode == ModeArea {
		if !isFinitePositive(params.Width) || !isFinitePositive(params.Height) {
			return LineItem{}, fmt.Errorf("area mode requires positive width and height: %w", ErrInvalidInput)
		}
		item.Width = params.Width
		item.Height = params.Height
		factor = params.Width * params.Height * float64(qty)
	}

	switch input.kind {
	case priceInputUnit:
		unit = input.value
		if unit < 0 || !isFinite(unit) {
			return LineItem{}, fmt.Errorf("unit price must be non-negative: %w", ErrInvalidInput)
		}
		item.UnitPrice = unit
		item.Total = unit * factor
	case priceInputTotal:
		total := input.value
		if total < 0 || !isFinite(total) {
			return LineItem{}, fmt.Errorf("total must be non-negative: %w", ErrInvalidInput)
		}
		item.Total = total
		item.UnitPrice = total / factor
	default:
		if unit < 0 {
			unit = 0
		}
		item.UnitPrice = unit
		item.Total = unit * factor
	}
	return item, nil
}

// AggregateCart sums line totals. Calling it twice over an unmodified cart
// yields the same result bit for bit.
func AggregateCart(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Total
	}
	return total
}

func findVariation(variations []Variation, label string) (Variation, bool) {
	for _, v := range variations {
		if v.Label == label {
			return v, true
		}
	}
	return Variation{}, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinitePositive(v float64) bool {
	return isFinite(v) && v > 0
}
