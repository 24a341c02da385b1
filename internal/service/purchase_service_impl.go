package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/google/uuid"
)

type purchaseService struct {
	engine
	observer UseCaseObserver
}

func NewPurchaseService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) PurchaseService {
	return &purchaseService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *purchaseService) Add(ctx context.Context, p *domain.PurchaseOrder) (err error) {
	fields := map[string]any{"amount": p.AmountTotal}
	defer observe(ctx, s.observer, "add-purchase", p.ProjectID, fields, &err)()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.State == "" {
		p.State = domain.PurchaseDraft
	}
	if err = p.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, p.ProjectID, func(ctx context.Context, ws *workspace) error {
		return addPurchase(ctx, ws, p)
	})
}

func addPurchase(ctx context.Context, ws *workspace, p *domain.PurchaseOrder) error {
	if p.BOQItemID != nil {
		if _, err := ws.boqItem(*p.BOQItemID); err != nil {
			return fmt.Errorf("purchase BOQ item: %w", err)
		}
	}
	if p.Reference == "" {
		p.Reference = fmt.Sprintf("PO-%s-%03d", ws.project.DisplayID(), len(ws.purchases)+1)
	}
	if p.OrderDate.IsZero() {
		p.OrderDate = ws.now.Truncate(24 * time.Hour)
	}
	p.CreatedAt = ws.now
	p.UpdatedAt = ws.now
	if err := ws.ledger.PutPurchase(p.ID, purchaseOf(p)); err != nil {
		return err
	}
	if err := ws.store.purchases.Create(ctx, p); err != nil {
		return err
	}
	ws.purchases[p.ID] = p
	return nil
}

func (s *purchaseService) List(ctx context.Context, projectID string) ([]*domain.PurchaseOrder, error) {
	var out []*domain.PurchaseOrder
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.purchases.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// Confirm makes the order count toward material cost; the first confirmed
// order replaces the BOQ estimate.
func (s *purchaseService) Confirm(ctx context.Context, projectID, id string) error {
	return s.step(ctx, "confirm-purchase", projectID, id, (*domain.PurchaseOrder).Confirm)
}

func (s *purchaseService) Receive(ctx context.Context, projectID, id string) error {
	return s.step(ctx, "receive-purchase", projectID, id, (*domain.PurchaseOrder).MarkDone)
}

func (s *purchaseService) Cancel(ctx context.Context, projectID, id string) error {
	return s.step(ctx, "cancel-purchase", projectID, id, (*domain.PurchaseOrder).Cancel)
}

func (s *purchaseService) step(ctx context.Context, name, projectID, id string, fn func(*domain.PurchaseOrder, time.Time) error) (err error) {
	defer observe(ctx, s.observer, name, projectID, map[string]any{"purchase": id}, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		p, ok := ws.purchases[id]
		if !ok {
			return notFoundIn("purchase order", id)
		}
		if err := fn(p, ws.now); err != nil {
			return err
		}
		if err := ws.ledger.PutPurchase(id, purchaseOf(p)); err != nil {
			return err
		}
		return ws.store.purchases.Update(ctx, p)
	})
}
