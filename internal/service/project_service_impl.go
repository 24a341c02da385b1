package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/ledger"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	engine
	observer UseCaseObserver
}

func NewProjectService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	fields := map[string]any{"code": p.Code}
	defer observe(ctx, s.observer, "create-project", p.ID, fields, &err)()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err = p.Validate(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		if err := r.projects.Create(ctx, p); err != nil {
			return err
		}
		ws, err := loadWorkspace(ctx, r, p.ID, now)
		if err != nil {
			return err
		}
		if err := ws.persist(ctx); err != nil {
			return err
		}
		*p = *ws.project
		return nil
	})
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p *domain.Project
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		p, err = r.projects.GetByID(ctx, id)
		return err
	})
	return p, err
}

func (s *projectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	var p *domain.Project
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		p, err = r.projects.GetByCode(ctx, ref)
		if errors.Is(err, repository.ErrNotFound) {
			p, err = r.projects.GetByID(ctx, ref)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", ref, err)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	var out []*domain.Project
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.projects.List(ctx, includeArchived)
		return err
	})
	return out, err
}

// Update stores the descriptive fields of p. Contract value and expected
// costs feed the recompute engine and go through SetContractValue and
// SetExpected.
func (s *projectService) Update(ctx context.Context, p *domain.Project) (err error) {
	defer observe(ctx, s.observer, "update-project", p.ID, nil, &err)()

	return s.mutate(ctx, p.ID, func(ctx context.Context, ws *workspace) error {
		cur := ws.project
		cur.Code = p.Code
		cur.Name = p.Name
		cur.Description = p.Description
		cur.Customer = p.Customer
		cur.Currency = p.Currency
		cur.StartDate = p.StartDate
		cur.EndDate = p.EndDate
		cur.ExpectedStart = p.ExpectedStart
		cur.ExpectedEnd = p.ExpectedEnd
		cur.UpdatedAt = ws.now
		if err := cur.Validate(); err != nil {
			return err
		}
		return ws.store.projects.Update(ctx, cur)
	})
}

func (s *projectService) Activate(ctx context.Context, id string) error {
	return s.lifecycle(ctx, "activate-project", id, (*domain.Project).Activate)
}

func (s *projectService) Complete(ctx context.Context, id string) error {
	return s.lifecycle(ctx, "complete-project", id, (*domain.Project).Complete)
}

func (s *projectService) Cancel(ctx context.Context, id string) error {
	return s.lifecycle(ctx, "cancel-project", id, (*domain.Project).Cancel)
}

func (s *projectService) Archive(ctx context.Context, id string) error {
	return s.lifecycle(ctx, "archive-project", id, (*domain.Project).Archive)
}

func (s *projectService) lifecycle(ctx context.Context, name, id string, step func(*domain.Project, time.Time) error) (err error) {
	defer observe(ctx, s.observer, name, id, nil, &err)()

	return s.transition(ctx, id, func(ctx context.Context, ws *workspace) error {
		if err := step(ws.project, ws.now); err != nil {
			return err
		}
		return ws.store.projects.Update(ctx, ws.project)
	})
}

func (s *projectService) Delete(ctx context.Context, id string, force bool) (err error) {
	defer observe(ctx, s.observer, "delete-project", id, map[string]any{"force": force}, &err)()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("locking project: %w", err)
	}
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		p, err := r.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !force && p.Status != domain.ProjectArchived {
			return fmt.Errorf("%w: project must be archived before deletion (use --force to override)", domain.ErrInvalidTransition)
		}
		return r.projects.Delete(ctx, id)
	})
}

func (s *projectService) SetContractValue(ctx context.Context, id string, value float64) (err error) {
	defer observe(ctx, s.observer, "set-contract-value", id, map[string]any{"value": value}, &err)()

	if err = domain.ValidateAmount("contract value", value); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(ctx context.Context, ws *workspace) error {
		if err := ws.ledger.SetContractValue(value); err != nil {
			return err
		}
		ws.project.ContractValue = value
		ws.project.UpdatedAt = ws.now
		return ws.store.projects.Update(ctx, ws.project)
	})
}

func (s *projectService) SetExpected(ctx context.Context, id string, expected domain.ExpectedCosts) (err error) {
	defer observe(ctx, s.observer, "set-expected-costs", id, nil, &err)()

	if err = expected.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(ctx context.Context, ws *workspace) error {
		if err := ws.ledger.SetExpected(expectedOf(expected)); err != nil {
			return err
		}
		ws.project.Expected = expected
		ws.project.UpdatedAt = ws.now
		return ws.store.projects.Update(ctx, ws.project)
	})
}

func (s *projectService) Costs(ctx context.Context, id string) (*contract.CostsView, error) {
	var view *contract.CostsView
	err := s.read(ctx, id, func(ctx context.Context, ws *workspace) error {
		view = ws.costs()
		return nil
	})
	return view, err
}

func (s *projectService) Recompute(ctx context.Context, id string) (view *contract.CostsView, err error) {
	defer observe(ctx, s.observer, "recompute-project", id, nil, &err)()

	err = s.transition(ctx, id, func(ctx context.Context, ws *workspace) error {
		ws.ledger.Recompute()
		view = ws.costs()
		return nil
	})
	return view, err
}

func (s *projectService) Bill(ctx context.Context, id string, pct float64) (inv *domain.Invoice, err error) {
	fields := map[string]any{"percentage": pct}
	defer observe(ctx, s.observer, "progress-bill", id, fields, &err)()

	err = s.mutate(ctx, id, func(ctx context.Context, ws *workspace) error {
		amount, err := ws.project.ProgressInvoiceAmount(pct)
		if err != nil {
			return err
		}
		inv = &domain.Invoice{
			ID:                uuid.New().String(),
			ProjectID:         ws.project.ID,
			Reference:         fmt.Sprintf("INV-%s-%03d", ws.project.DisplayID(), len(ws.invoices)+1),
			Amount:            amount,
			State:             domain.PostingDraft,
			ProgressBilling:   true,
			BillingPercentage: pct,
			InvoiceDate:       ws.now.Truncate(24 * time.Hour),
			CreatedAt:         ws.now,
			UpdatedAt:         ws.now,
		}
		return addInvoice(ctx, ws, inv)
	})
	if err == nil {
		fields["amount"] = inv.Amount
	}
	return inv, err
}

// addInvoice stores inv and feeds it to the ledger.
func addInvoice(ctx context.Context, ws *workspace, inv *domain.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := ws.store.invoices.Create(ctx, inv); err != nil {
		return err
	}
	ws.invoices[inv.ID] = inv
	return ws.ledger.Batch(func(m ledger.Mutator) error {
		return m.PutInvoice(inv.ID, postedInvoice(inv))
	})
}
