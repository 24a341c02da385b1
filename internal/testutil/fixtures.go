package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/google/uuid"
)

var testCodeCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithCode(code string) ProjectOption {
	return func(p *domain.Project) {
		p.Code = code
	}
}

func WithContractValue(v float64) ProjectOption {
	return func(p *domain.Project) {
		p.ContractValue = v
	}
}

func WithExpected(material, labor, equipment, contract float64) ProjectOption {
	return func(p *domain.Project) {
		p.Expected = domain.ExpectedCosts{
			Material:      material,
			Labor:         labor,
			Equipment:     equipment,
			ContractValue: contract,
		}
	}
}

func WithProjectDates(start, end time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = &start
		p.EndDate = &end
	}
}

func defaultCode(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testCodeCounter.Add(1) % 10000
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	start := now.AddDate(0, -1, 0)
	p := &domain.Project{
		ID:        uuid.New().String(),
		Code:      defaultCode(name),
		Name:      name,
		Customer:  "Test Customer",
		Currency:  "USD",
		Status:    domain.ProjectActive,
		StartDate: &start,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BOQ options
type BOQOption func(*domain.BOQItem)

func WithBOQParent(id string) BOQOption {
	return func(b *domain.BOQItem) {
		b.ParentID = &id
	}
}

func WithBOQLine(qty, unitPrice float64) BOQOption {
	return func(b *domain.BOQItem) {
		b.Quantity = qty
		b.UnitPrice = unitPrice
		b.TotalPrice = qty * unitPrice
	}
}

func WithBOQSeq(seq int) BOQOption {
	return func(b *domain.BOQItem) {
		b.Seq = seq
	}
}

func WithBOQCode(code string) BOQOption {
	return func(b *domain.BOQItem) {
		b.Code = code
	}
}

func NewTestBOQItem(projectID, name string, opts ...BOQOption) *domain.BOQItem {
	now := time.Now().UTC()
	b := &domain.BOQItem{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Unit:      "m3",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskParent(id string) TaskOption {
	return func(t *domain.Task) {
		t.ParentID = &id
	}
}

func WithLeafProgress(pct float64) TaskOption {
	return func(t *domain.Task) {
		t.LeafProgress = pct
		t.ProgressPercent = pct
	}
}

func WithTaskSeq(seq int) TaskOption {
	return func(t *domain.Task) {
		t.Seq = seq
	}
}

func WithTaskDates(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.StartDate = &start
		t.EndDate = &end
	}
}

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func NewTestTask(projectID, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Status:    domain.TaskNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DPR options
type DPROption func(*domain.DPR)

func WithDPRDate(d time.Time) DPROption {
	return func(r *domain.DPR) {
		r.Date = d
	}
}

func WithDPRMaterial(product string, qty, unitCost float64) DPROption {
	return func(r *domain.DPR) {
		r.Materials = append(r.Materials, domain.DPRMaterial{
			ID:       uuid.New().String(),
			DPRID:    r.ID,
			Product:  product,
			Unit:     "bag",
			Quantity: qty,
			UnitCost: unitCost,
		})
	}
}

func NewTestDPR(projectID string, employees int, perDayCost float64, opts ...DPROption) *domain.DPR {
	now := time.Now().UTC()
	r := &domain.DPR{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		Date:          now.Truncate(24 * time.Hour),
		Summary:       "site work",
		EmployeeCount: employees,
		WorkingHours:  domain.DefaultWorkingHours,
		PerDayCost:    perDayCost,
		CreatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Equipment options
type EquipmentOption func(*domain.EquipmentAllocation)

func WithEquipmentHours(h float64) EquipmentOption {
	return func(e *domain.EquipmentAllocation) {
		e.TotalHours = h
	}
}

func WithEquipmentPeriod(from, to time.Time) EquipmentOption {
	return func(e *domain.EquipmentAllocation) {
		e.AllocationDate = from
		e.ReturnDate = &to
	}
}

func WithEquipmentState(s domain.EquipmentState) EquipmentOption {
	return func(e *domain.EquipmentAllocation) {
		e.State = s
	}
}

func NewTestEquipment(projectID, equipment string, hourlyRate float64, opts ...EquipmentOption) *domain.EquipmentAllocation {
	now := time.Now().UTC()
	e := &domain.EquipmentAllocation{
		ID:             uuid.New().String(),
		ProjectID:      projectID,
		Reference:      "EQ-" + equipment,
		Equipment:      equipment,
		Category:       domain.EquipmentOwned,
		AllocationDate: now.Truncate(24 * time.Hour),
		HourlyRate:     hourlyRate,
		State:          domain.EquipmentAllocated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewTestPurchase(projectID string, amount float64, state domain.PurchaseState) *domain.PurchaseOrder {
	now := time.Now().UTC()
	return &domain.PurchaseOrder{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Reference:   "PO-" + uuid.New().String()[:8],
		Supplier:    "Supplier",
		AmountTotal: amount,
		State:       state,
		OrderDate:   now.Truncate(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewTestInvoice(projectID string, amount float64, state domain.PostingState) *domain.Invoice {
	now := time.Now().UTC()
	return &domain.Invoice{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Reference:   "INV-" + uuid.New().String()[:8],
		Amount:      amount,
		State:       state,
		InvoiceDate: now.Truncate(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewTestPayment(projectID string, amount float64, state domain.PostingState) *domain.Payment {
	now := time.Now().UTC()
	return &domain.Payment{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Reference:   "PAY-" + uuid.New().String()[:8],
		Amount:      amount,
		Kind:        domain.PaymentProgress,
		State:       state,
		PaymentDate: now.Truncate(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Quotation options
type QuotationOption func(*domain.Quotation)

func WithQuotationLine(w domain.WorkType, qty, unitCost, laborDays, laborRate float64) QuotationOption {
	return func(q *domain.Quotation) {
		q.Lines = append(q.Lines, domain.QuotationLine{
			ID:               uuid.New().String(),
			QuotationID:      q.ID,
			Sequence:         len(q.Lines) + 1,
			WorkType:         w,
			Description:      string(w),
			Quantity:         qty,
			Unit:             "m2",
			MaterialUnitCost: unitCost,
			LaborDays:        laborDays,
			LaborRatePerDay:  laborRate,
		})
	}
}

func WithQuotationState(s domain.QuotationState) QuotationOption {
	return func(q *domain.Quotation) {
		q.State = s
	}
}

func NewTestQuotation(reference string, opts ...QuotationOption) *domain.Quotation {
	now := time.Now().UTC()
	q := &domain.Quotation{
		ID:            uuid.New().String(),
		Reference:     reference,
		Customer:      "Test Customer",
		Currency:      "USD",
		Date:          now.Truncate(24 * time.Hour),
		MarginPercent: domain.DefaultMarginPercent,
		VATPercent:    domain.DefaultVATPercent,
		State:         domain.QuotationDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}
