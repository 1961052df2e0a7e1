package printdoc

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0,00"},
		{5, "5,00"},
		{12.5, "12,50"},
		{1234.5, "1.234,50"},
		{1234567.891, "1.234.567,89"},
		{0.005, "0,01"},
		{-42.1, "-42,10"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func testData() ReceiptData {
	return ReceiptData{
		OrderID:      "ord-1",
		CustomerName: "Maria",
		CreatedAt:    time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		Lines: []ReceiptLine{
			{Name: "Cartão de visita", Description: "couché 300g", Quantity: 500, UnitPrice: 0.2, Total: 100},
			{Name: "Banner", Description: "2x1.5m", Quantity: 1, UnitPrice: 30, Total: 90},
		},
		Payments: []ReceiptPayment{
			{Amount: 100, Method: "pix", PaidAt: time.Date(2025, 3, 10, 14, 31, 0, 0, time.UTC)},
			{Amount: 45, Pending: true},
			{Amount: 45, Pending: true},
		},
		Total:        190,
		AmountPaid:   100,
		Remaining:    90,
		Installments: 2,
	}
}

func TestReceiptRendering(t *testing.T) {
	r, err := NewRenderer("Gráfica Teste", "R$")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Receipt(&buf, testData()); err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Gráfica Teste",
		"Cartão de visita",
		"R$ 190,00",
		"R$ 100,00",
		"R$ 90,00",
		"(2x)",
		"10/03/2025 14:30",
		"pendente",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("receipt missing %q", want)
		}
	}
}

func TestOrderSlipOmitsMoney(t *testing.T) {
	r, err := NewRenderer("Gráfica Teste", "R$")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.OrderSlip(&buf, testData()); err != nil {
		t.Fatalf("OrderSlip: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Ordem de produção") {
		t.Error("slip missing title")
	}
	if !strings.Contains(out, "couché 300g") {
		t.Error("slip missing item spec")
	}
	if strings.Contains(out, "R$") {
		t.Error("slip must not show prices")
	}
}

func TestCashSummaryRendering(t *testing.T) {
	r, err := NewRenderer("Gráfica Teste", "R$")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	data := CashSummaryData{
		SessionID:    "sess-1",
		OpenedAt:     time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		ClosedAt:     time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		OpeningFloat: 50,
		Movements: []CashSummaryMovement{
			{Kind: "sale", Amount: 300},
			{Kind: "withdrawal", Description: "sangria", Amount: -100},
		},
		Expected: 250,
		Counted:  248.5,
		Delta:    -1.5,
	}
	if err := r.CashSummary(&buf, data); err != nil {
		t.Fatalf("CashSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Fechamento de caixa", "R$ 250,00", "R$ 248,50", "-1,50", "sangria"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
