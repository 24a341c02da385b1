package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/ledger"
	"github.com/alexanderramin/siteledger/internal/repository"
)

// repos are the repositories bound to one transaction.
type repos struct {
	projects   repository.ProjectRepo
	seqs       repository.ProjectSequenceRepo
	boq        repository.BOQRepo
	tasks      repository.TaskRepo
	dprs       repository.DPRRepo
	equipment  repository.EquipmentRepo
	purchases  repository.PurchaseRepo
	invoices   repository.InvoiceRepo
	payments   repository.PaymentRepo
	quotations repository.QuotationRepo
}

func newRepos(tx db.DBTX) repos {
	return repos{
		projects:   repository.NewSQLiteProjectRepo(tx),
		seqs:       repository.NewSQLiteProjectSequenceRepo(tx),
		boq:        repository.NewSQLiteBOQRepo(tx),
		tasks:      repository.NewSQLiteTaskRepo(tx),
		dprs:       repository.NewSQLiteDPRRepo(tx),
		equipment:  repository.NewSQLiteEquipmentRepo(tx),
		purchases:  repository.NewSQLitePurchaseRepo(tx),
		invoices:   repository.NewSQLiteInvoiceRepo(tx),
		payments:   repository.NewSQLitePaymentRepo(tx),
		quotations: repository.NewSQLiteQuotationRepo(tx),
	}
}

// workspace is one project loaded into a fresh ledger for a single unit of
// work. Records are indexed by id; the ledger holds the derived values.
type workspace struct {
	store   repos
	now     time.Time
	project *domain.Project
	ledger  *ledger.Ledger

	boq       map[string]*domain.BOQItem
	tasks     map[string]*domain.Task
	dprs      map[string]*domain.DPR
	equipment map[string]*domain.EquipmentAllocation
	purchases map[string]*domain.PurchaseOrder
	invoices  map[string]*domain.Invoice
	payments  map[string]*domain.Payment
}

func loadWorkspace(ctx context.Context, r repos, projectID string, now time.Time) (*workspace, error) {
	p, err := r.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws := &workspace{
		store:     r,
		now:       now,
		project:   p,
		ledger:    ledger.New(p.ID),
		boq:       make(map[string]*domain.BOQItem),
		tasks:     make(map[string]*domain.Task),
		dprs:      make(map[string]*domain.DPR),
		equipment: make(map[string]*domain.EquipmentAllocation),
		purchases: make(map[string]*domain.PurchaseOrder),
		invoices:  make(map[string]*domain.Invoice),
		payments:  make(map[string]*domain.Payment),
	}

	items, err := r.boq.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := r.tasks.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	reports, err := r.dprs.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	allocations, err := r.equipment.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	orders, err := r.purchases.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	invoices, err := r.invoices.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	payments, err := r.payments.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	err = ws.ledger.Batch(func(m ledger.Mutator) error {
		for _, b := range items {
			ws.boq[b.ID] = b
			if err := m.AddBOQItem(b.ID, b.Name, b.Quantity, b.UnitPrice); err != nil {
				return err
			}
		}
		for _, b := range items {
			if b.ParentID != nil {
				if err := m.AttachBOQ(*b.ParentID, b.ID); err != nil {
					return err
				}
			}
		}
		for _, t := range tasks {
			ws.tasks[t.ID] = t
			if err := m.AddTask(t.ID, t.LeafProgress); err != nil {
				return err
			}
		}
		for _, t := range tasks {
			if t.ParentID != nil {
				if err := m.AttachTask(*t.ParentID, t.ID); err != nil {
					return err
				}
			}
		}
		for _, d := range reports {
			ws.dprs[d.ID] = d
			if err := m.PutLabor(d.ID, laborOf(d)); err != nil {
				return err
			}
		}
		for _, e := range allocations {
			ws.equipment[e.ID] = e
			if err := m.PutEquipment(e.ID, equipmentCost(e, now)); err != nil {
				return err
			}
		}
		for _, po := range orders {
			ws.purchases[po.ID] = po
			if err := m.PutPurchase(po.ID, purchaseOf(po)); err != nil {
				return err
			}
		}
		for _, inv := range invoices {
			ws.invoices[inv.ID] = inv
			if err := m.PutInvoice(inv.ID, postedInvoice(inv)); err != nil {
				return err
			}
		}
		for _, pay := range payments {
			ws.payments[pay.ID] = pay
			if err := m.PutPayment(pay.ID, postedPayment(pay)); err != nil {
				return err
			}
		}
		if err := m.SetContractValue(p.ContractValue); err != nil {
			return err
		}
		return m.SetExpected(expectedOf(p.Expected))
	})
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", p.DisplayID(), err)
	}
	if p.IsLocked() {
		ws.ledger.Freeze()
	}
	return ws, nil
}

// persist writes back every derived value that differs from what is stored.
func (ws *workspace) persist(ctx context.Context) error {
	snap := ws.ledger.Snapshot()
	for id, total := range snap.BOQ {
		item, ok := ws.boq[id]
		if !ok || item.TotalPrice == total {
			continue
		}
		if err := ws.store.boq.SetTotalPrice(ctx, id, total); err != nil {
			return fmt.Errorf("storing BOQ total: %w", err)
		}
		item.TotalPrice = total
	}
	for id, pct := range snap.Tasks {
		t, ok := ws.tasks[id]
		if !ok || t.ProgressPercent == pct {
			continue
		}
		if err := ws.store.tasks.SetProgress(ctx, id, pct); err != nil {
			return fmt.Errorf("storing task progress: %w", err)
		}
		t.ProgressPercent = pct
	}

	derived := *ws.project
	applyState(&derived, snap.State)
	if sameDerived(&derived, ws.project) {
		return nil
	}
	if err := ws.store.projects.UpdateDerived(ctx, &derived); err != nil {
		return fmt.Errorf("storing project costs: %w", err)
	}
	*ws.project = derived
	return nil
}

// costs reads the settled ledger state as a view.
func (ws *workspace) costs() *contract.CostsView {
	st := ws.ledger.State()
	p := ws.project
	return &contract.CostsView{
		ProjectID:         p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Status:            string(p.Status),
		MaterialCost:      st.Costs.Material,
		LaborCost:         st.Costs.Labor,
		EquipmentCost:     st.Costs.Equipment,
		ContractValue:     p.ContractValue,
		TotalCost:         st.Costs.Total,
		ProgressPercent:   st.Costs.ProgressPercent,
		ExpectedTotalCost: st.ExpectedTotal,
		VariancePercent:   st.Variance,
	}
}

// boqItem returns an item of this project or ErrNotFound.
func (ws *workspace) boqItem(id string) (*domain.BOQItem, error) {
	b, ok := ws.boq[id]
	if !ok {
		return nil, notFoundIn("BOQ item", id)
	}
	return b, nil
}

func (ws *workspace) task(id string) (*domain.Task, error) {
	t, ok := ws.tasks[id]
	if !ok {
		return nil, notFoundIn("task", id)
	}
	return t, nil
}

func notFoundIn(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
}

func applyState(p *domain.Project, st ledger.State) {
	p.MaterialCost = st.Costs.Material
	p.LaborCost = st.Costs.Labor
	p.EquipmentCost = st.Costs.Equipment
	p.TotalCost = st.Costs.Total
	p.ProgressPercent = st.Costs.ProgressPercent
	p.ExpectedTotalCost = st.ExpectedTotal
	p.TotalInvoiced = st.Financials.Invoiced
	p.TotalPaid = st.Financials.Paid
}

func sameDerived(a, b *domain.Project) bool {
	return a.MaterialCost == b.MaterialCost &&
		a.LaborCost == b.LaborCost &&
		a.EquipmentCost == b.EquipmentCost &&
		a.TotalCost == b.TotalCost &&
		a.ProgressPercent == b.ProgressPercent &&
		a.ExpectedTotalCost == b.ExpectedTotalCost &&
		a.TotalInvoiced == b.TotalInvoiced &&
		a.TotalPaid == b.TotalPaid
}

func laborOf(d *domain.DPR) costing.Labor {
	return costing.Labor{
		PerDayCost:    d.PerDayCost,
		WorkingHours:  d.WorkingHours,
		EmployeeCount: d.EmployeeCount,
	}
}

func purchaseOf(p *domain.PurchaseOrder) costing.Purchase {
	return costing.Purchase{Amount: p.AmountTotal, Confirmed: p.Confirmed()}
}

func expectedOf(e domain.ExpectedCosts) costing.Expected {
	return costing.Expected{
		Material:      e.Material,
		Labor:         e.Labor,
		Equipment:     e.Equipment,
		ContractValue: e.ContractValue,
	}
}
