package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/google/uuid"
)

type billingService struct {
	engine
	observer UseCaseObserver
}

func NewBillingService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) BillingService {
	return &billingService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *billingService) AddInvoice(ctx context.Context, inv *domain.Invoice) (err error) {
	defer observe(ctx, s.observer, "add-invoice", inv.ProjectID, map[string]any{"amount": inv.Amount}, &err)()

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.State == "" {
		inv.State = domain.PostingDraft
	}
	return s.mutate(ctx, inv.ProjectID, func(ctx context.Context, ws *workspace) error {
		if inv.Reference == "" {
			inv.Reference = fmt.Sprintf("INV-%s-%03d", ws.project.DisplayID(), len(ws.invoices)+1)
		}
		if inv.InvoiceDate.IsZero() {
			inv.InvoiceDate = ws.now.Truncate(24 * time.Hour)
		}
		inv.CreatedAt = ws.now
		inv.UpdatedAt = ws.now
		return addInvoice(ctx, ws, inv)
	})
}

func (s *billingService) PostInvoice(ctx context.Context, projectID, id string) error {
	return s.invoiceStep(ctx, "post-invoice", projectID, id, (*domain.Invoice).Post)
}

func (s *billingService) CancelInvoice(ctx context.Context, projectID, id string) error {
	return s.invoiceStep(ctx, "cancel-invoice", projectID, id, (*domain.Invoice).Cancel)
}

func (s *billingService) invoiceStep(ctx context.Context, name, projectID, id string, fn func(*domain.Invoice, time.Time) error) (err error) {
	defer observe(ctx, s.observer, name, projectID, map[string]any{"invoice": id}, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		inv, ok := ws.invoices[id]
		if !ok {
			return notFoundIn("invoice", id)
		}
		if err := fn(inv, ws.now); err != nil {
			return err
		}
		if err := ws.ledger.PutInvoice(id, postedInvoice(inv)); err != nil {
			return err
		}
		return ws.store.invoices.Update(ctx, inv)
	})
}

func (s *billingService) ListInvoices(ctx context.Context, projectID string) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.invoices.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

func (s *billingService) AddPayment(ctx context.Context, p *domain.Payment) (err error) {
	defer observe(ctx, s.observer, "add-payment", p.ProjectID, map[string]any{"amount": p.Amount}, &err)()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.State == "" {
		p.State = domain.PostingDraft
	}
	if p.Kind == "" {
		p.Kind = domain.PaymentProgress
	}
	if err = p.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, p.ProjectID, func(ctx context.Context, ws *workspace) error {
		if p.Reference == "" {
			p.Reference = fmt.Sprintf("PAY-%s-%03d", ws.project.DisplayID(), len(ws.payments)+1)
		}
		if p.PaymentDate.IsZero() {
			p.PaymentDate = ws.now.Truncate(24 * time.Hour)
		}
		p.CreatedAt = ws.now
		p.UpdatedAt = ws.now
		if err := ws.ledger.PutPayment(p.ID, postedPayment(p)); err != nil {
			return err
		}
		if err := ws.store.payments.Create(ctx, p); err != nil {
			return err
		}
		ws.payments[p.ID] = p
		return nil
	})
}

func (s *billingService) PostPayment(ctx context.Context, projectID, id string) (err error) {
	defer observe(ctx, s.observer, "post-payment", projectID, map[string]any{"payment": id}, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		p, ok := ws.payments[id]
		if !ok {
			return notFoundIn("payment", id)
		}
		if err := p.Post(ws.now); err != nil {
			return err
		}
		if err := ws.ledger.PutPayment(id, postedPayment(p)); err != nil {
			return err
		}
		return ws.store.payments.Update(ctx, p)
	})
}

func (s *billingService) ListPayments(ctx context.Context, projectID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.payments.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

func postedInvoice(inv *domain.Invoice) costing.PostedAmount {
	return costing.PostedAmount{Amount: inv.Amount, Posted: inv.Posted()}
}

func postedPayment(p *domain.Payment) costing.PostedAmount {
	return costing.PostedAmount{Amount: p.Amount, Posted: p.Posted()}
}
