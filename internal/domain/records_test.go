package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBOQItem_LineValue(t *testing.T) {
	b := &BOQItem{Quantity: 10, UnitPrice: 10}
	assert.Equal(t, 100.0, b.LineValue())
}

func TestBOQItem_Validate(t *testing.T) {
	id := "x"
	assert.Error(t, (&BOQItem{ProjectID: "p"}).Validate())
	assert.Error(t, (&BOQItem{Name: "Concrete"}).Validate())
	assert.Error(t, (&BOQItem{ID: id, ProjectID: "p", Name: "Concrete", ParentID: &id}).Validate())
	assert.NoError(t, (&BOQItem{ID: id, ProjectID: "p", Name: "Concrete"}).Validate())
}

func TestTask_ValidateProgressRange(t *testing.T) {
	assert.NoError(t, ValidateProgress(0))
	assert.NoError(t, ValidateProgress(100))
	assert.Error(t, ValidateProgress(-0.1))
	assert.Error(t, ValidateProgress(100.5))
}

func TestTask_Duration(t *testing.T) {
	start, end := day(2026, 1, 1), day(2026, 1, 10)
	task := &Task{StartDate: &start, EndDate: &end}
	assert.Equal(t, 10, task.Duration())

	assert.Equal(t, 0, (&Task{StartDate: &start}).Duration())
}

func TestTask_IsOverdue(t *testing.T) {
	end := day(2026, 1, 10)
	task := &Task{EndDate: &end, Status: TaskInProgress}
	assert.True(t, task.IsOverdue(day(2026, 1, 11)))
	assert.False(t, task.IsOverdue(day(2026, 1, 10)))

	task.Status = TaskCompleted
	assert.False(t, task.IsOverdue(day(2026, 2, 1)))
}

func TestTask_SetStatus(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{Status: TaskNotStarted}

	require.NoError(t, task.SetStatus(TaskCompleted, now))
	assert.ErrorIs(t, task.SetStatus(TaskNotStarted, now), ErrInvalidTransition)
	require.NoError(t, task.SetStatus(TaskInProgress, now))
	assert.Error(t, task.SetStatus("paused", now))
}

func TestDPR_LaborFigures(t *testing.T) {
	d := &DPR{EmployeeCount: 2, WorkingHours: 8, PerDayCost: 50}
	assert.Equal(t, 800.0, d.LaborCost())
	assert.Equal(t, 16.0, d.LaborHours())
}

func TestDPR_MaterialCost(t *testing.T) {
	d := &DPR{Materials: []DPRMaterial{
		{Product: "Cement", Quantity: 10, UnitCost: 12.5},
		{Product: "Sand", Quantity: 2, UnitCost: 40},
	}}
	assert.Equal(t, 205.0, d.MaterialCost())
}

func TestDPR_Validate(t *testing.T) {
	valid := DPR{ProjectID: "p", Date: day(2026, 4, 1), EmployeeCount: 3, WorkingHours: 8}
	assert.NoError(t, valid.Validate())

	noDate := valid
	noDate.Date = time.Time{}
	assert.Error(t, noDate.Validate())

	tooLong := valid
	tooLong.WorkingHours = 25
	assert.Error(t, tooLong.Validate())

	negative := valid
	negative.EmployeeCount = -1
	assert.Error(t, negative.Validate())
}

func TestEquipment_TotalDays(t *testing.T) {
	ret := day(2026, 3, 5)
	actual := day(2026, 3, 3)
	today := day(2026, 3, 20)

	e := &EquipmentAllocation{AllocationDate: day(2026, 3, 1)}
	assert.Equal(t, 20, e.TotalDays(today), "open allocation runs to today")

	e.ReturnDate = &ret
	assert.Equal(t, 5, e.TotalDays(today))

	e.ActualReturnDate = &actual
	assert.Equal(t, 3, e.TotalDays(today))

	early := day(2026, 2, 1)
	e.ActualReturnDate = &early
	assert.Equal(t, 0, e.TotalDays(today))
}

func TestEquipment_TotalCost(t *testing.T) {
	ret := day(2026, 3, 4)
	e := &EquipmentAllocation{AllocationDate: day(2026, 3, 1), ReturnDate: &ret, HourlyRate: 10}

	assert.Equal(t, 80.0, e.DailyRate())
	assert.Equal(t, 320.0, e.TotalCost(day(2026, 6, 1)), "4 days at the daily rate")

	e.TotalHours = 5
	assert.Equal(t, 50.0, e.TotalCost(day(2026, 6, 1)), "logged hours win")
}

func TestEquipment_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	e := &EquipmentAllocation{State: EquipmentDraft}

	require.NoError(t, e.Allocate(now))
	require.NoError(t, e.StartUse(now))
	require.NoError(t, e.LogUsage(6, now))
	require.NoError(t, e.LogUsage(2.5, now))
	assert.Equal(t, 8.5, e.TotalHours)

	require.NoError(t, e.Return(now))
	require.NotNil(t, e.ActualReturnDate)
	assert.Equal(t, day(2026, 3, 9), *e.ActualReturnDate)

	assert.ErrorIs(t, e.LogUsage(1, now), ErrInvalidTransition)
	assert.ErrorIs(t, e.Cancel(now), ErrInvalidTransition)
}

func TestPurchaseOrder_States(t *testing.T) {
	now := time.Now().UTC()
	po := &PurchaseOrder{State: PurchaseDraft}
	assert.False(t, po.Confirmed())

	require.NoError(t, po.Confirm(now))
	assert.True(t, po.Confirmed())
	require.NoError(t, po.MarkDone(now))
	assert.True(t, po.Confirmed())
	assert.ErrorIs(t, po.Cancel(now), ErrInvalidTransition)
}

func TestInvoiceAndPayment_Post(t *testing.T) {
	now := time.Now().UTC()
	inv := &Invoice{ProjectID: "p", Amount: 100, State: PostingDraft}
	require.NoError(t, inv.Post(now))
	assert.True(t, inv.Posted())
	assert.ErrorIs(t, inv.Post(now), ErrInvalidTransition)

	pay := &Payment{ProjectID: "p", Amount: 40, Kind: PaymentAdvance, State: PostingDraft}
	require.NoError(t, pay.Validate())
	require.NoError(t, pay.Post(now))
	assert.True(t, pay.Posted())

	bad := &Payment{ProjectID: "p", Kind: "gift"}
	assert.Error(t, bad.Validate())
}

func TestInvoice_ProgressBillingPercentage(t *testing.T) {
	inv := &Invoice{ProjectID: "p", ProgressBilling: true, BillingPercentage: 0}
	assert.Error(t, inv.Validate())
	inv.BillingPercentage = 30
	assert.NoError(t, inv.Validate())
}

func TestQuotation_StateMachine(t *testing.T) {
	now := time.Now().UTC()
	q := &Quotation{Reference: "Q-001", Customer: "ACME", State: QuotationDraft}

	assert.ErrorIs(t, q.MarkConverted("p1", now), ErrInvalidTransition)
	require.NoError(t, q.Send(now))
	assert.ErrorIs(t, q.EnsureEditable(), ErrInvalidTransition)
	require.NoError(t, q.Approve(now))
	require.NoError(t, q.MarkConverted("p1", now))
	assert.Equal(t, QuotationConverted, q.State)
	require.NotNil(t, q.ProjectID)
	assert.Equal(t, "p1", *q.ProjectID)
	assert.ErrorIs(t, q.Reject(now), ErrInvalidTransition)
}

func TestQuotation_ValidateLines(t *testing.T) {
	q := &Quotation{Reference: "Q-1", Customer: "ACME", Lines: []QuotationLine{{WorkType: "welding"}}}
	err := q.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestDefaultsFor(t *testing.T) {
	d, ok := DefaultsFor(WorkTiling)
	require.True(t, ok)
	assert.Equal(t, 0.8, d.LaborDays)
	assert.Equal(t, 10.0, d.WastePercent)

	_, ok = DefaultsFor(WorkPlumbing)
	assert.False(t, ok)
}
