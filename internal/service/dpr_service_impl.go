package service

import (
	"context"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/ledger"
	"github.com/google/uuid"
)

type dprService struct {
	engine
	observer UseCaseObserver
}

func NewDPRService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) DPRService {
	return &dprService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *dprService) Add(ctx context.Context, d *domain.DPR) (err error) {
	fields := map[string]any{"employees": d.EmployeeCount, "materials": len(d.Materials)}
	defer observe(ctx, s.observer, "add-dpr", d.ProjectID, fields, &err)()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.WorkingHours == 0 {
		d.WorkingHours = domain.DefaultWorkingHours
	}
	for i := range d.Materials {
		if d.Materials[i].ID == "" {
			d.Materials[i].ID = uuid.New().String()
		}
	}
	if err = d.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, d.ProjectID, func(ctx context.Context, ws *workspace) error {
		return addDPR(ctx, ws, d)
	})
}

func addDPR(ctx context.Context, ws *workspace, d *domain.DPR) error {
	d.CreatedAt = ws.now
	if err := ws.ledger.PutLabor(d.ID, laborOf(d)); err != nil {
		return err
	}
	if err := ws.store.dprs.Create(ctx, d); err != nil {
		return err
	}
	ws.dprs[d.ID] = d
	return nil
}

func (s *dprService) List(ctx context.Context, projectID string) ([]*domain.DPR, error) {
	var out []*domain.DPR
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.dprs.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

func (s *dprService) Remove(ctx context.Context, projectID, id string) (err error) {
	defer observe(ctx, s.observer, "remove-dpr", projectID, map[string]any{"dpr": id}, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		if _, ok := ws.dprs[id]; !ok {
			return notFoundIn("DPR", id)
		}
		err := ws.ledger.Batch(func(m ledger.Mutator) error {
			return m.RemoveLabor(id)
		})
		if err != nil {
			return err
		}
		delete(ws.dprs, id)
		return ws.store.dprs.Delete(ctx, id)
	})
}
