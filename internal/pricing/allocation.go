package pricing

import "fmt"

// PaymentStatus classifies how much of an order has been settled.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
)

// PaymentEntry is a single materialised payment of an allocation. Pending
// entries represent future installments; the non-pending entry is the amount
// handed over at the counter.
type PaymentEntry struct {
	Amount  float64 `json:"amount"`
	Pending bool    `json:"pending"`
}

// Allocation is the derived payment breakdown of a sale. It is recomputed
// whenever the cart total or the entered amount changes, never stored on its
// own. Invariant: AmountPaid + Remaining == cart total (within float
// tolerance).
type Allocation struct {
	AmountPaid       float64        `json:"amountPaid"`
	Remaining        float64        `json:"remaining"`
	InstallmentCount int            `json:"installmentCount"`
	InstallmentValue float64        `json:"installmentValue"`
	Status           PaymentStatus  `json:"status"`
	Entries          []PaymentEntry `json:"entries"`
}

// AllocatePayment splits a sale total into the amount paid now and the
// pending remainder. A nil entered amount means full payment. Overpayment is
// capped at the total; it is never treated as change due. With more than one
// installment the remainder is split into equal pending entries; with a
// single installment only the Remaining field represents the open amount.
func AllocatePayment(cartTotal float64, entered *float64, installments int) (Allocation, error) {
	if cartTotal < 0 || !isFinite(cartTotal) {
		return Allocation{}, fmt.Errorf("cart total must be non-negative: %w", ErrInvalidInput)
	}
	if installments < 1 {
		return Allocation{}, fmt.Errorf("installment count must be at least 1: %w", ErrInvalidInput)
	}

	amount := cartTotal
	if entered != nil {
		if *entered < 0 || !isFinite(*entered) {
			return Allocation{}, fmt.Errorf("entered amount must be non-negative: %w", ErrInvalidInput)
		}
		amount = *entered
	}

	remaining := cartTotal - amount
	if remaining < 0 {
		remaining = 0
	}
	paid := cartTotal - remaining

	alloc := Allocation{
		AmountPaid:       paid,
		Remaining:        remaining,
		InstallmentCount: installments,
	}

	switch {
	case remaining == 0:
		alloc.Status = StatusPaid
	case paid == 0:
		alloc.Status = StatusPending
	default:
		alloc.Status = StatusPartial
	}

	if paid > 0 {
		alloc.Entries = append(alloc.Entries, PaymentEntry{Amount: paid})
	}
	if remaining > 0 && installments > 1 {
		alloc.InstallmentValue = remaining / float64(installments)
		for i := 0; i < installments; i++ {
			alloc.Entries = append(alloc.Entries, PaymentEntry{Amount: alloc.InstallmentValue, Pending: true})
		}
	}
	return alloc, nil
}
