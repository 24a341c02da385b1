package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/google/uuid"
)

// Converted holds the domain records built from an import file. BOQ items and
// tasks are ordered parents first.
type Converted struct {
	Project   *domain.Project
	BOQ       []*domain.BOQItem
	Tasks     []*domain.Task
	DPRs      []*domain.DPR
	Equipment []*domain.EquipmentAllocation
	Purchases []*domain.PurchaseOrder
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, now time.Time) (*Converted, error) {
	sp := schema.Project
	project := &domain.Project{
		ID:            uuid.New().String(),
		Code:          strings.ToUpper(sp.Code),
		Name:          sp.Name,
		Description:   sp.Description,
		Customer:      sp.Customer,
		Currency:      domain.CoalesceStr(sp.Currency, "USD"),
		Status:        domain.ProjectStatus(domain.CoalesceStr(sp.Status, string(domain.ProjectDraft))),
		StartDate:     parseOptionalDate(sp.StartDate),
		EndDate:       parseOptionalDate(sp.EndDate),
		ContractValue: sp.ContractValue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if e := sp.Expected; e != nil {
		project.Expected = domain.ExpectedCosts{
			Material:      e.Material,
			Labor:         e.Labor,
			Equipment:     e.Equipment,
			ContractValue: e.ContractValue,
		}
	}
	if project.Status == domain.ProjectArchived {
		project.ArchivedAt = &now
	}

	out := &Converted{Project: project}

	boqIDs := make(map[string]string) // ref -> UUID
	for i, b := range schema.BOQ {
		id := uuid.New().String()
		boqIDs[b.Ref] = id
		parentID, err := resolveParent(boqIDs, b.ParentRef, "boq", b.Ref)
		if err != nil {
			return nil, err
		}
		out.BOQ = append(out.BOQ, &domain.BOQItem{
			ID:         id,
			ProjectID:  project.ID,
			ParentID:   parentID,
			Code:       b.Code,
			Name:       b.Name,
			Unit:       b.Unit,
			Quantity:   b.Quantity,
			UnitPrice:  b.UnitPrice,
			TotalPrice: b.Quantity * b.UnitPrice,
			LaborHours: b.LaborHours,
			LaborCost:  b.LaborCost,
			OrderIndex: i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	taskIDs := make(map[string]string)
	for _, t := range schema.Tasks {
		id := uuid.New().String()
		taskIDs[t.Ref] = id
		parentID, err := resolveParent(taskIDs, t.ParentRef, "task", t.Ref)
		if err != nil {
			return nil, err
		}
		out.Tasks = append(out.Tasks, &domain.Task{
			ID:              id,
			ProjectID:       project.ID,
			ParentID:        parentID,
			Name:            t.Name,
			StartDate:       parseOptionalDate(t.StartDate),
			EndDate:         parseOptionalDate(t.EndDate),
			LeafProgress:    t.Progress,
			ProgressPercent: t.Progress,
			Status:          domain.TaskStatus(domain.CoalesceStr(t.Status, string(domain.TaskNotStarted))),
			AssignedTo:      t.AssignedTo,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	for _, d := range schema.DPRs {
		date, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing DPR date: %w", err)
		}
		r := &domain.DPR{
			ID:            uuid.New().String(),
			ProjectID:     project.ID,
			Date:          date,
			Summary:       d.Summary,
			Issues:        d.Issues,
			EmployeeCount: d.EmployeeCount,
			WorkingHours:  domain.Float64FromPtrWithDefault(domain.DefaultWorkingHours, d.WorkingHours),
			PerDayCost:    d.PerDayCost,
			CreatedAt:     now,
		}
		for _, m := range d.Materials {
			r.Materials = append(r.Materials, domain.DPRMaterial{
				ID:       uuid.New().String(),
				DPRID:    r.ID,
				Product:  m.Product,
				Unit:     m.Unit,
				Quantity: m.Quantity,
				UnitCost: m.UnitCost,
			})
		}
		out.DPRs = append(out.DPRs, r)
	}

	for i, e := range schema.Equipment {
		allocated, err := time.Parse(dateLayout, e.AllocationDate)
		if err != nil {
			return nil, fmt.Errorf("parsing allocation_date: %w", err)
		}
		var taskID *string
		if e.TaskRef != nil && *e.TaskRef != "" {
			id, ok := taskIDs[*e.TaskRef]
			if !ok {
				return nil, fmt.Errorf("task_ref %q not found for equipment %q", *e.TaskRef, e.Equipment)
			}
			taskID = &id
		}
		out.Equipment = append(out.Equipment, &domain.EquipmentAllocation{
			ID:             uuid.New().String(),
			ProjectID:      project.ID,
			TaskID:         taskID,
			Reference:      fmt.Sprintf("EQ-%s-%03d", project.Code, i+1),
			Equipment:      e.Equipment,
			Category:       domain.EquipmentCategory(domain.CoalesceStr(e.Category, string(domain.EquipmentOwned))),
			AllocationDate: allocated,
			ReturnDate:     parseOptionalDate(e.ReturnDate),
			HourlyRate:     e.HourlyRate,
			TotalHours:     e.TotalHours,
			State:          domain.EquipmentState(domain.CoalesceStr(e.State, string(domain.EquipmentAllocated))),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	for i, p := range schema.Purchases {
		var boqID *string
		if p.BOQRef != nil && *p.BOQRef != "" {
			id, ok := boqIDs[*p.BOQRef]
			if !ok {
				return nil, fmt.Errorf("boq_ref %q not found for purchase %d", *p.BOQRef, i)
			}
			boqID = &id
		}
		orderDate := now.Truncate(24 * time.Hour)
		if d := parseOptionalDate(p.OrderDate); d != nil {
			orderDate = *d
		}
		out.Purchases = append(out.Purchases, &domain.PurchaseOrder{
			ID:          uuid.New().String(),
			ProjectID:   project.ID,
			BOQItemID:   boqID,
			Reference:   domain.CoalesceStr(p.Reference, fmt.Sprintf("PO-%s-%03d", project.Code, i+1)),
			Supplier:    p.Supplier,
			AmountTotal: p.Amount,
			State:       domain.PurchaseState(domain.CoalesceStr(p.State, string(domain.PurchaseDraft))),
			OrderDate:   orderDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return out, nil
}

func resolveParent(ids map[string]string, parentRef *string, kind, ref string) (*string, error) {
	if parentRef == nil || *parentRef == "" {
		return nil, nil
	}
	pid, ok := ids[*parentRef]
	if !ok || *parentRef == ref {
		return nil, fmt.Errorf("parent_ref %q not found for %s %q", *parentRef, kind, ref)
	}
	return &pid, nil
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
