package sale

import (
	"errors"
	"testing"

	"github.com/graficaloja/backend-pdv/internal/pricing"
)

func testLookup(t *testing.T) ProductLookup {
	t.Helper()
	catalog := map[string]CatalogProduct{
		"card": {
			Product: pricing.Product{
				Ref:       "card",
				Name:      "Business card",
				BasePrice: 0.5,
				Variations: []pricing.Variation{
					{Label: "matte", UnitPrice: 0.7},
					{Label: "glossy", UnitPrice: 0.9},
				},
			},
			Mode: pricing.ModeQuantity,
		},
		"banner": {
			Product: pricing.Product{Ref: "banner", Name: "Banner", BasePrice: 30},
			Mode:    pricing.ModeArea,
		},
	}
	return func(id string) (CatalogProduct, error) {
		p, ok := catalog[id]
		if !ok {
			return CatalogProduct{}, errors.New("product not found")
		}
		return p, nil
	}
}

func str(v string) *string { return &v }

func TestBuildDraftCatalogPricing(t *testing.T) {
	in := FinalizeInput{
		Items: []ItemInput{
			{ProductID: "card", Quantity: 100, VariationLabel: "matte"},
			{ProductID: "banner", Quantity: 1, Width: 2, Height: 1.5},
		},
		Installments: 1,
	}
	draft, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	if got := draft.Items[0].Total; got != 70 {
		t.Fatalf("card line total = %v, want 70", got)
	}
	if got := draft.Items[1].Total; got != 90 {
		t.Fatalf("banner line total = %v, want 90", got)
	}
	if draft.Items[1].Mode != pricing.ModeArea {
		t.Fatalf("banner mode = %q, want area from catalog", draft.Items[1].Mode)
	}
	if draft.Total != 160 {
		t.Fatalf("total = %v, want 160", draft.Total)
	}
	if draft.Allocation.Status != pricing.StatusPaid {
		t.Fatalf("status = %q, want paid with no entered amount", draft.Allocation.Status)
	}
}

func TestBuildDraftLastEditedTotalWins(t *testing.T) {
	unit := 9.99
	total := 50.0
	in := FinalizeInput{
		Items: []ItemInput{{
			ProductID:  "card",
			Quantity:   100,
			UnitPrice:  &unit,
			Total:      &total,
			LastEdited: "total",
		}},
	}
	draft, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	if draft.Items[0].Total != 50 {
		t.Fatalf("total = %v, want the edited 50", draft.Items[0].Total)
	}
	if draft.Items[0].UnitPrice != 0.5 {
		t.Fatalf("unit price = %v, want implied 0.5", draft.Items[0].UnitPrice)
	}
}

func TestBuildDraftLastEditedUnitWins(t *testing.T) {
	unit := 1.0
	total := 999.0
	in := FinalizeInput{
		Items: []ItemInput{{
			ProductID:  "card",
			Quantity:   10,
			UnitPrice:  &unit,
			Total:      &total,
			LastEdited: "unitPrice",
		}},
	}
	draft, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	if draft.Items[0].Total != 10 {
		t.Fatalf("total = %v, want derived 10", draft.Items[0].Total)
	}
}

func TestBuildDraftLastEditedMissingField(t *testing.T) {
	in := FinalizeInput{
		Items: []ItemInput{{ProductID: "card", Quantity: 1, LastEdited: "total"}},
	}
	if _, err := BuildDraft(testLookup(t), in, 12); !errors.Is(err, pricing.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildDraftPartialPaymentInstallments(t *testing.T) {
	in := FinalizeInput{
		Items:        []ItemInput{{ProductID: "banner", Quantity: 1, Width: 2, Height: 1.5}},
		AmountPaid:   str("30"),
		Installments: 3,
	}
	draft, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	alloc := draft.Allocation
	if alloc.Status != pricing.StatusPartial {
		t.Fatalf("status = %q, want partial", alloc.Status)
	}
	if alloc.AmountPaid != 30 || alloc.Remaining != 60 {
		t.Fatalf("paid/remaining = %v/%v, want 30/60", alloc.AmountPaid, alloc.Remaining)
	}
	if len(alloc.Entries) != 4 {
		t.Fatalf("entries = %d, want 1 paid + 3 pending", len(alloc.Entries))
	}
	if alloc.InstallmentValue != 20 {
		t.Fatalf("installment value = %v, want 20", alloc.InstallmentValue)
	}
}

func TestBuildDraftCommaDecimalAmount(t *testing.T) {
	in := FinalizeInput{
		Items:      []ItemInput{{ProductID: "card", Quantity: 100, VariationLabel: "glossy"}},
		AmountPaid: str("45,5"),
	}
	draft, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	if draft.Allocation.AmountPaid != 45.5 {
		t.Fatalf("paid = %v, want 45.5", draft.Allocation.AmountPaid)
	}
}

func TestBuildDraftRejectsBadAmount(t *testing.T) {
	in := FinalizeInput{
		Items:      []ItemInput{{ProductID: "card", Quantity: 1}},
		AmountPaid: str("abc"),
	}
	if _, err := BuildDraft(testLookup(t), in, 12); !errors.Is(err, pricing.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildDraftInstallmentsAboveLimit(t *testing.T) {
	in := FinalizeInput{
		Items:        []ItemInput{{ProductID: "card", Quantity: 1}},
		Installments: 24,
	}
	if _, err := BuildDraft(testLookup(t), in, 12); !errors.Is(err, pricing.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildDraftEmptyCart(t *testing.T) {
	if _, err := BuildDraft(testLookup(t), FinalizeInput{}, 12); !errors.Is(err, pricing.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildDraftRoundTripStable(t *testing.T) {
	in := FinalizeInput{
		Items: []ItemInput{
			{ProductID: "card", Quantity: 250, VariationLabel: "glossy"},
			{ProductID: "banner", Quantity: 2, Width: 1.2, Height: 0.8},
		},
		AmountPaid:   str("100"),
		Installments: 2,
	}
	first, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}
	second, err := BuildDraft(testLookup(t), in, 12)
	if err != nil {
		t.Fatalf("BuildDraft again: %v", err)
	}
	if first.Total != second.Total || first.Allocation.Remaining != second.Allocation.Remaining {
		t.Fatalf("unchanged input changed output: %v vs %v", first, second)
	}
}
