package domain

import (
	"fmt"
	"time"
)

// PurchaseOrder is a supplier order raised against a project.
type PurchaseOrder struct {
	ID          string
	ProjectID   string
	BOQItemID   *string
	Reference   string
	Supplier    string
	AmountTotal float64
	State       PurchaseState
	OrderDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Confirmed reports whether the order counts toward material cost.
func (p *PurchaseOrder) Confirmed() bool {
	return p.State == PurchaseConfirmed || p.State == PurchaseDone
}

func (p *PurchaseOrder) Validate() error {
	if p.ProjectID == "" {
		return Invalidf("purchase order has no project")
	}
	if err := ValidateAmount("purchase amount", p.AmountTotal); err != nil {
		return err
	}
	return nil
}

func (p *PurchaseOrder) Confirm(now time.Time) error {
	if p.State != PurchaseDraft {
		return fmt.Errorf("%w: cannot confirm a %s purchase order", ErrInvalidTransition, p.State)
	}
	p.State = PurchaseConfirmed
	p.UpdatedAt = now
	return nil
}

func (p *PurchaseOrder) MarkDone(now time.Time) error {
	if p.State != PurchaseConfirmed {
		return fmt.Errorf("%w: cannot receive a %s purchase order", ErrInvalidTransition, p.State)
	}
	p.State = PurchaseDone
	p.UpdatedAt = now
	return nil
}

func (p *PurchaseOrder) Cancel(now time.Time) error {
	if p.State == PurchaseDone || p.State == PurchaseCancelled {
		return fmt.Errorf("%w: cannot cancel a %s purchase order", ErrInvalidTransition, p.State)
	}
	p.State = PurchaseCancelled
	p.UpdatedAt = now
	return nil
}

// Invoice is a customer invoice for a project.
type Invoice struct {
	ID                string
	ProjectID         string
	Reference         string
	Amount            float64
	State             PostingState
	ProgressBilling   bool
	BillingPercentage float64
	InvoiceDate       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (i *Invoice) Posted() bool {
	return i.State == PostingPosted
}

func (i *Invoice) Validate() error {
	if i.ProjectID == "" {
		return Invalidf("invoice has no project")
	}
	if err := ValidateAmount("invoice amount", i.Amount); err != nil {
		return err
	}
	if i.ProgressBilling && !(i.BillingPercentage > 0 && i.BillingPercentage <= 100) {
		return Invalidf("billing percentage must be in (0, 100], got %g", i.BillingPercentage)
	}
	return nil
}

func (i *Invoice) Post(now time.Time) error {
	if i.State != PostingDraft {
		return fmt.Errorf("%w: cannot post a %s invoice", ErrInvalidTransition, i.State)
	}
	i.State = PostingPosted
	i.UpdatedAt = now
	return nil
}

func (i *Invoice) Cancel(now time.Time) error {
	if i.State == PostingCancelled {
		return fmt.Errorf("%w: invoice is already cancelled", ErrInvalidTransition)
	}
	i.State = PostingCancelled
	i.UpdatedAt = now
	return nil
}

// Payment is money received from the customer.
type Payment struct {
	ID          string
	ProjectID   string
	Reference   string
	Amount      float64
	Kind        PaymentKind
	State       PostingState
	PaymentDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Payment) Posted() bool {
	return p.State == PostingPosted
}

func (p *Payment) Validate() error {
	if p.ProjectID == "" {
		return Invalidf("payment has no project")
	}
	if err := ValidateAmount("payment amount", p.Amount); err != nil {
		return err
	}
	if !ValidPaymentKinds[string(p.Kind)] {
		return Invalidf("invalid payment kind %q", p.Kind)
	}
	return nil
}

func (p *Payment) Post(now time.Time) error {
	if p.State != PostingDraft {
		return fmt.Errorf("%w: cannot post a %s payment", ErrInvalidTransition, p.State)
	}
	p.State = PostingPosted
	p.UpdatedAt = now
	return nil
}
