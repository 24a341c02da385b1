package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/ledger"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/google/uuid"
)

type boqService struct {
	engine
	observer UseCaseObserver
}

func NewBOQService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) BOQService {
	return &boqService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Add stores a new item, numbers it within the project and rolls its value
// up into its parent.
func (s *boqService) Add(ctx context.Context, item *domain.BOQItem) (err error) {
	fields := map[string]any{"name": item.Name}
	defer observe(ctx, s.observer, "add-boq-item", item.ProjectID, fields, &err)()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err = item.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, item.ProjectID, func(ctx context.Context, ws *workspace) error {
		return addBOQItem(ctx, ws, item)
	})
}

func addBOQItem(ctx context.Context, ws *workspace, item *domain.BOQItem) error {
	if item.ParentID != nil {
		if _, err := ws.boqItem(*item.ParentID); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	if item.Seq == 0 {
		seq, err := ws.store.seqs.NextProjectSeq(ctx, item.ProjectID)
		if err != nil {
			return err
		}
		item.Seq = seq
	}
	item.CreatedAt = ws.now
	item.UpdatedAt = ws.now
	item.TotalPrice = item.LineValue()

	err := ws.ledger.Batch(func(m ledger.Mutator) error {
		if err := m.AddBOQItem(item.ID, item.Name, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
		if item.ParentID != nil {
			return m.AttachBOQ(*item.ParentID, item.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := ws.store.boq.Create(ctx, item); err != nil {
		return err
	}
	ws.boq[item.ID] = item
	return nil
}

// Get resolves ref as "#<seq>", a bare number or an item id.
func (s *boqService) Get(ctx context.Context, projectID, ref string) (*domain.BOQItem, error) {
	var item *domain.BOQItem
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		if seq, ok := parseSeq(ref); ok {
			item, err = r.boq.GetBySeq(ctx, projectID, seq)
			return err
		}
		item, err = r.boq.GetByID(ctx, ref)
		if err == nil && item.ProjectID != projectID {
			return fmt.Errorf("BOQ item %s: %w", ref, repository.ErrNotFound)
		}
		return err
	})
	return item, err
}

func (s *boqService) List(ctx context.Context, projectID string) ([]*domain.BOQItem, error) {
	var out []*domain.BOQItem
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.boq.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

func (s *boqService) SetLine(ctx context.Context, projectID, itemID string, quantity, unitPrice float64) (err error) {
	fields := map[string]any{"item": itemID, "quantity": quantity, "unit_price": unitPrice}
	defer observe(ctx, s.observer, "set-boq-line", projectID, fields, &err)()

	if err = domain.ValidateLine(quantity, unitPrice); err != nil {
		return err
	}
	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		item, err := ws.boqItem(itemID)
		if err != nil {
			return err
		}
		if err := ws.ledger.SetBOQLine(itemID, quantity, unitPrice); err != nil {
			return err
		}
		item.Quantity = quantity
		item.UnitPrice = unitPrice
		item.UpdatedAt = ws.now
		return ws.store.boq.Update(ctx, item)
	})
}

func (s *boqService) Rename(ctx context.Context, projectID, itemID, name string) (err error) {
	defer observe(ctx, s.observer, "rename-boq-item", projectID, map[string]any{"item": itemID}, &err)()

	if strings.TrimSpace(name) == "" {
		return domain.Invalidf("BOQ item name is required")
	}
	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		item, err := ws.boqItem(itemID)
		if err != nil {
			return err
		}
		if err := ws.ledger.RenameBOQItem(itemID, name); err != nil {
			return err
		}
		item.Name = name
		item.UpdatedAt = ws.now
		return ws.store.boq.Update(ctx, item)
	})
}

// Move re-parents an item. A move that would put an item under its own
// descendant fails with a rollup.CycleError and changes nothing.
func (s *boqService) Move(ctx context.Context, projectID, itemID, parentID string) (err error) {
	fields := map[string]any{"item": itemID, "parent": parentID}
	defer observe(ctx, s.observer, "move-boq-item", projectID, fields, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		item, err := ws.boqItem(itemID)
		if err != nil {
			return err
		}
		if parentID == "" {
			if item.ParentID == nil {
				return nil
			}
			if err := ws.ledger.DetachBOQ(*item.ParentID, itemID); err != nil {
				return err
			}
			item.ParentID = nil
		} else {
			if _, err := ws.boqItem(parentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			if err := ws.ledger.AttachBOQ(parentID, itemID); err != nil {
				return err
			}
			item.ParentID = &parentID
		}
		item.UpdatedAt = ws.now
		return ws.store.boq.Update(ctx, item)
	})
}

// Remove deletes the item and its descendants.
func (s *boqService) Remove(ctx context.Context, projectID, itemID string) (removed []string, err error) {
	fields := map[string]any{"item": itemID}
	defer observe(ctx, s.observer, "remove-boq-item", projectID, fields, &err)()

	err = s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		if _, err := ws.boqItem(itemID); err != nil {
			return err
		}
		ids, err := ws.ledger.RemoveBOQ(itemID)
		if err != nil {
			return err
		}
		if err := ws.store.boq.Delete(ctx, itemID); err != nil {
			return err
		}
		for _, id := range ids {
			delete(ws.boq, id)
		}
		removed = ids
		return nil
	})
	fields["removed"] = len(removed)
	return removed, err
}

func (s *boqService) Snapshot(ctx context.Context, projectID, rootID string) (map[string]float64, error) {
	var snap map[string]float64
	err := s.read(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		if rootID != "" {
			if _, err := ws.boqItem(rootID); err != nil {
				return err
			}
		}
		var err error
		snap, err = ws.ledger.BOQSnapshot(rootID)
		return err
	})
	return snap, err
}

// parseSeq accepts "#12" or "12".
func parseSeq(ref string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
