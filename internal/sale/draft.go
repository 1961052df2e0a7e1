package sale

import (
	"fmt"
	"time"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/pricing"
)

// ItemInput is one cart line as submitted from the counter. UnitPrice and
// Total are both optional; LastEdited names the field the operator touched
// last, which becomes the authoritative one. When LastEdited is blank the set
// pointer decides, and with neither set the catalog price drives the line.
type ItemInput struct {
	ProductID      string   `json:"productId" validate:"required,uuid"`
	Quantity       int      `json:"quantity" validate:"required"`
	Mode           string   `json:"mode" validate:"omitempty,oneof=quantity area"`
	VariationLabel string   `json:"variationLabel"`
	FinishingLabel string   `json:"finishingLabel"`
	Note           string   `json:"note"`
	Width          float64  `json:"width"`
	Height         float64  `json:"height"`
	UnitPrice      *float64 `json:"unitPrice"`
	Total          *float64 `json:"total"`
	LastEdited     string   `json:"lastEdited" validate:"omitempty,oneof=unitPrice total"`
}

// FinalizeInput is the full sale payload.
type FinalizeInput struct {
	CustomerID   *string     `json:"customerId" validate:"omitempty,uuid"`
	CustomerName string      `json:"customerName"`
	Items        []ItemInput `json:"items" validate:"required,min=1,dive"`
	AmountPaid   *string     `json:"amountPaid"`
	Installments int         `json:"installments"`
	Method       string      `json:"method"`
	DueDate      *time.Time  `json:"dueDate"`
	Notes        *string     `json:"notes"`
}

// Draft is a fully priced sale before persistence.
type Draft struct {
	Items      []pricing.LineItem
	Total      float64
	Allocation pricing.Allocation
}

// CatalogProduct pairs the engine's product shape with the catalog's default
// pricing mode, used when a line does not name one.
type CatalogProduct struct {
	pricing.Product
	Mode pricing.Mode
}

// ProductLookup resolves a catalog product by id.
type ProductLookup func(id string) (CatalogProduct, error)

// BuildDraft prices every submitted line, aggregates the cart and allocates
// the payment. It is pure apart from the injected lookup.
func BuildDraft(lookup ProductLookup, in FinalizeInput, maxInstallments int) (Draft, error) {
	installments := in.Installments
	if installments == 0 {
		installments = 1
	}
	if maxInstallments > 0 && installments > maxInstallments {
		return Draft{}, fmt.Errorf("installments above limit of %d: %w", maxInstallments, pricing.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return Draft{}, fmt.Errorf("sale needs at least one item: %w", pricing.ErrInvalidInput)
	}

	cart := &Cart{}
	for i, it := range in.Items {
		product, err := lookup(it.ProductID)
		if err != nil {
			return Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		input, err := toPriceInput(it)
		if err != nil {
			return Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		mode := pricing.Mode(it.Mode)
		if mode == "" {
			mode = product.Mode
		}
		line, err := pricing.PriceLineItem(product.Product, it.Quantity, pricing.LineParams{
			Mode:      mode,
			Variation: it.VariationLabel,
			Finishing: it.FinishingLabel,
			Note:      it.Note,
			Width:     it.Width,
			Height:    it.Height,
		}, input)
		if err != nil {
			return Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		cart.Add(line)
	}

	total := cart.Total()
	entered, err := parseEntered(in.AmountPaid)
	if err != nil {
		return Draft{}, err
	}
	alloc, err := pricing.AllocatePayment(total, entered, installments)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Items: cart.Items(), Total: total, Allocation: alloc}, nil
}

func toPriceInput(it ItemInput) (pricing.PriceInput, error) {
	switch it.LastEdited {
	case "unitPrice":
		if it.UnitPrice == nil {
			return pricing.PriceInput{}, fmt.Errorf("lastEdited names unitPrice but none was sent: %w", pricing.ErrInvalidInput)
		}
		return pricing.UnitPriceEntered(*it.UnitPrice), nil
	case "total":
		if it.Total == nil {
			return pricing.PriceInput{}, fmt.Errorf("lastEdited names total but none was sent: %w", pricing.ErrInvalidInput)
		}
		return pricing.TotalEntered(*it.Total), nil
	}
	if it.Total != nil {
		return pricing.TotalEntered(*it.Total), nil
	}
	if it.UnitPrice != nil {
		return pricing.UnitPriceEntered(*it.UnitPrice), nil
	}
	return pricing.PriceInput{}, nil
}

// parseEntered accepts the amount as a string so counter input like "1.234,50"
// survives the trip. Blank and nil both mean "pay in full".
func parseEntered(raw *string) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	amount, ok := common.ParseAmount(*raw)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a number: %w", *raw, pricing.ErrInvalidInput)
	}
	return amount, nil
}
