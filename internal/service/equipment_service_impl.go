package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/google/uuid"
)

type equipmentService struct {
	engine
	observer UseCaseObserver
}

func NewEquipmentService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) EquipmentService {
	return &equipmentService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Allocate records a new allocation. Draft allocations are moved to
// allocated; an explicit state is kept.
func (s *equipmentService) Allocate(ctx context.Context, e *domain.EquipmentAllocation) (err error) {
	fields := map[string]any{"equipment": e.Equipment}
	defer observe(ctx, s.observer, "allocate-equipment", e.ProjectID, fields, &err)()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Category == "" {
		e.Category = domain.EquipmentOwned
	}
	if e.State == "" {
		e.State = domain.EquipmentDraft
	}
	if err = e.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, e.ProjectID, func(ctx context.Context, ws *workspace) error {
		if e.State == domain.EquipmentDraft {
			if err := e.Allocate(ws.now); err != nil {
				return err
			}
		}
		return addEquipment(ctx, ws, e)
	})
}

func addEquipment(ctx context.Context, ws *workspace, e *domain.EquipmentAllocation) error {
	if e.TaskID != nil {
		if _, err := ws.task(*e.TaskID); err != nil {
			return fmt.Errorf("equipment task: %w", err)
		}
	}
	if e.Reference == "" {
		e.Reference = fmt.Sprintf("EQ-%s-%03d", ws.project.DisplayID(), len(ws.equipment)+1)
	}
	e.CreatedAt = ws.now
	e.UpdatedAt = ws.now
	if err := ws.ledger.PutEquipment(e.ID, equipmentCost(e, ws.now)); err != nil {
		return err
	}
	if err := ws.store.equipment.Create(ctx, e); err != nil {
		return err
	}
	ws.equipment[e.ID] = e
	return nil
}

func (s *equipmentService) List(ctx context.Context, projectID string) ([]*domain.EquipmentAllocation, error) {
	var out []*domain.EquipmentAllocation
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.equipment.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

func (s *equipmentService) LogUsage(ctx context.Context, projectID, id string, hours float64) error {
	return s.step(ctx, "log-equipment-usage", projectID, id, func(e *domain.EquipmentAllocation, now time.Time) error {
		if e.State == domain.EquipmentAllocated {
			if err := e.StartUse(now); err != nil {
				return err
			}
		}
		return e.LogUsage(hours, now)
	})
}

func (s *equipmentService) Return(ctx context.Context, projectID, id string) error {
	return s.step(ctx, "return-equipment", projectID, id, (*domain.EquipmentAllocation).Return)
}

func (s *equipmentService) Cancel(ctx context.Context, projectID, id string) error {
	return s.step(ctx, "cancel-equipment", projectID, id, (*domain.EquipmentAllocation).Cancel)
}

func (s *equipmentService) step(ctx context.Context, name, projectID, id string, fn func(*domain.EquipmentAllocation, time.Time) error) (err error) {
	defer observe(ctx, s.observer, name, projectID, map[string]any{"allocation": id}, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		e, ok := ws.equipment[id]
		if !ok {
			return notFoundIn("equipment allocation", id)
		}
		if err := fn(e, ws.now); err != nil {
			return err
		}
		if err := ws.ledger.PutEquipment(id, equipmentCost(e, ws.now)); err != nil {
			return err
		}
		return ws.store.equipment.Update(ctx, e)
	})
}

// equipmentCost is what an allocation adds to the project. A cancelled
// allocation still replaces the BOQ keyword estimate but costs nothing.
func equipmentCost(e *domain.EquipmentAllocation, today time.Time) float64 {
	if e.State == domain.EquipmentCancelled {
		return 0
	}
	return e.TotalCost(today)
}
