package service

import (
	"context"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/importer"
)

// ProjectLocker serializes writers of one project.
type ProjectLocker interface {
	Lock(ctx context.Context, projectID string) (unlock func(), err error)
}

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve finds a project by code (case-insensitive) or id.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Activate(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string, force bool) error
	SetContractValue(ctx context.Context, id string, value float64) error
	SetExpected(ctx context.Context, id string, expected domain.ExpectedCosts) error
	Costs(ctx context.Context, id string) (*contract.CostsView, error)
	// Recompute rebuilds every derived value of the project from its records.
	Recompute(ctx context.Context, id string) (*contract.CostsView, error)
	// Bill creates a draft progress-billing invoice for pct percent of the
	// contract value.
	Bill(ctx context.Context, id string, pct float64) (*domain.Invoice, error)
}

type BOQService interface {
	Add(ctx context.Context, item *domain.BOQItem) error
	Get(ctx context.Context, projectID, ref string) (*domain.BOQItem, error)
	List(ctx context.Context, projectID string) ([]*domain.BOQItem, error)
	SetLine(ctx context.Context, projectID, itemID string, quantity, unitPrice float64) error
	Rename(ctx context.Context, projectID, itemID, name string) error
	// Move attaches the item under parentID; an empty parentID detaches it.
	Move(ctx context.Context, projectID, itemID, parentID string) error
	Remove(ctx context.Context, projectID, itemID string) (removed []string, err error)
	Snapshot(ctx context.Context, projectID, rootID string) (map[string]float64, error)
}

type TaskService interface {
	Add(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, projectID, ref string) (*domain.Task, error)
	List(ctx context.Context, projectID string) ([]*domain.Task, error)
	SetProgress(ctx context.Context, projectID, taskID string, pct float64) error
	SetStatus(ctx context.Context, projectID, taskID string, status domain.TaskStatus) error
	Move(ctx context.Context, projectID, taskID, parentID string) error
	Remove(ctx context.Context, projectID, taskID string) (removed []string, err error)
	Snapshot(ctx context.Context, projectID, rootID string) (map[string]float64, error)
}

type DPRService interface {
	Add(ctx context.Context, d *domain.DPR) error
	List(ctx context.Context, projectID string) ([]*domain.DPR, error)
	Remove(ctx context.Context, projectID, id string) error
}

type EquipmentService interface {
	Allocate(ctx context.Context, e *domain.EquipmentAllocation) error
	List(ctx context.Context, projectID string) ([]*domain.EquipmentAllocation, error)
	LogUsage(ctx context.Context, projectID, id string, hours float64) error
	Return(ctx context.Context, projectID, id string) error
	Cancel(ctx context.Context, projectID, id string) error
}

type PurchaseService interface {
	Add(ctx context.Context, p *domain.PurchaseOrder) error
	List(ctx context.Context, projectID string) ([]*domain.PurchaseOrder, error)
	Confirm(ctx context.Context, projectID, id string) error
	Receive(ctx context.Context, projectID, id string) error
	Cancel(ctx context.Context, projectID, id string) error
}

type BillingService interface {
	AddInvoice(ctx context.Context, inv *domain.Invoice) error
	PostInvoice(ctx context.Context, projectID, id string) error
	CancelInvoice(ctx context.Context, projectID, id string) error
	ListInvoices(ctx context.Context, projectID string) ([]*domain.Invoice, error)
	AddPayment(ctx context.Context, p *domain.Payment) error
	PostPayment(ctx context.Context, projectID, id string) error
	ListPayments(ctx context.Context, projectID string) ([]*domain.Payment, error)
}

type QuotationService interface {
	Create(ctx context.Context, q *domain.Quotation) error
	Get(ctx context.Context, ref string) (*domain.Quotation, error)
	List(ctx context.Context) ([]*domain.Quotation, error)
	AddLine(ctx context.Context, ref string, line domain.QuotationLine) (*domain.Quotation, error)
	Send(ctx context.Context, ref string) error
	Approve(ctx context.Context, ref string) error
	Reject(ctx context.Context, ref string) error
	// Convert turns an approved quotation into a draft project with one BOQ
	// item per line.
	Convert(ctx context.Context, ref, projectCode string) (*domain.Project, error)
}

type DashboardService interface {
	Project(ctx context.Context, id string) (*contract.ProjectDashboard, error)
	Overview(ctx context.Context) (*contract.Overview, error)
}

// ImportResult holds the outcome of a project import.
type ImportResult struct {
	Project        *domain.Project
	BOQCount       int
	TaskCount      int
	DPRCount       int
	EquipmentCount int
	PurchaseCount  int
}

type ImportService interface {
	ImportProject(ctx context.Context, filePath string) (*ImportResult, error)
	ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
