package pricing

import (
	"errors"
	"testing"
)

func float(v float64) *float64 { return &v }

func TestAllocateFullPaymentWhenOmitted(t *testing.T) {
	alloc, err := AllocatePayment(100, nil, 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.AmountPaid != 100 || alloc.Remaining != 0 {
		t.Fatalf("expected paid 100 / remaining 0, got %v / %v", alloc.AmountPaid, alloc.Remaining)
	}
	if alloc.Status != StatusPaid {
		t.Fatalf("expected status paid, got %s", alloc.Status)
	}
}

func TestAllocatePartialWithInstallments(t *testing.T) {
	alloc, err := AllocatePayment(100, float(40), 3)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.AmountPaid != 40 || alloc.Remaining != 60 {
		t.Fatalf("expected paid 40 / remaining 60, got %v / %v", alloc.AmountPaid, alloc.Remaining)
	}
	if alloc.Status != StatusPartial {
		t.Fatalf("expected status partial, got %s", alloc.Status)
	}
	if alloc.InstallmentValue != 20 {
		t.Fatalf("expected installment value 20, got %v", alloc.InstallmentValue)
	}
	// one paid-now entry plus three pending installments
	if len(alloc.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(alloc.Entries))
	}
	if alloc.Entries[0].Pending || alloc.Entries[0].Amount != 40 {
		t.Fatalf("expected first entry paid 40, got %+v", alloc.Entries[0])
	}
	for _, e := range alloc.Entries[1:] {
		if !e.Pending || e.Amount != 20 {
			t.Fatalf("expected pending entry of 20, got %+v", e)
		}
	}
	if alloc.AmountPaid+alloc.Remaining != 100 {
		t.Fatal("paid + remaining must equal cart total")
	}
}

func TestAllocateNothingPaid(t *testing.T) {
	alloc, err := AllocatePayment(100, float(0), 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.AmountPaid != 0 || alloc.Remaining != 100 {
		t.Fatalf("expected paid 0 / remaining 100, got %v / %v", alloc.AmountPaid, alloc.Remaining)
	}
	if alloc.Status != StatusPending {
		t.Fatalf("expected status pending, got %s", alloc.Status)
	}
	// single installment: the remainder is not materialised as entries
	if len(alloc.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(alloc.Entries))
	}
}

func TestAllocateOverpaymentCapped(t *testing.T) {
	alloc, err := AllocatePayment(100, float(150), 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.AmountPaid != 100 || alloc.Remaining != 0 {
		t.Fatalf("expected cap at 100, got paid %v / remaining %v", alloc.AmountPaid, alloc.Remaining)
	}
	if alloc.Status != StatusPaid {
		t.Fatalf("expected status paid, got %s", alloc.Status)
	}
}

func TestAllocateSingleInstallmentNoEntries(t *testing.T) {
	alloc, err := AllocatePayment(200, float(50), 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.Remaining != 150 {
		t.Fatalf("expected remaining 150, got %v", alloc.Remaining)
	}
	// only the paid-now entry; remaining is carried by the field alone
	if len(alloc.Entries) != 1 || alloc.Entries[0].Pending {
		t.Fatalf("expected a single paid entry, got %+v", alloc.Entries)
	}
}

func TestAllocateRejectsNegativeInputs(t *testing.T) {
	if _, err := AllocatePayment(-1, nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative total: expected ErrInvalidInput, got %v", err)
	}
	if _, err := AllocatePayment(100, float(-10), 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative entered: expected ErrInvalidInput, got %v", err)
	}
	if _, err := AllocatePayment(100, nil, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero installments: expected ErrInvalidInput, got %v", err)
	}
}
