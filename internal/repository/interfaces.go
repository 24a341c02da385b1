package repository

import (
	"context"

	"github.com/alexanderramin/siteledger/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByCode(ctx context.Context, code string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	// UpdateDerived writes only the fields the recompute engine owns.
	UpdateDerived(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type ProjectSequenceRepo interface {
	NextProjectSeq(ctx context.Context, projectID string) (int, error)
}

type BOQRepo interface {
	Create(ctx context.Context, b *domain.BOQItem) error
	GetByID(ctx context.Context, id string) (*domain.BOQItem, error)
	GetBySeq(ctx context.Context, projectID string, seq int) (*domain.BOQItem, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.BOQItem, error)
	Update(ctx context.Context, b *domain.BOQItem) error
	SetTotalPrice(ctx context.Context, id string, total float64) error
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	SetProgress(ctx context.Context, id string, pct float64) error
	Delete(ctx context.Context, id string) error
}

type DPRRepo interface {
	// Create inserts the report together with its material lines.
	Create(ctx context.Context, d *domain.DPR) error
	GetByID(ctx context.Context, id string) (*domain.DPR, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.DPR, error)
	Delete(ctx context.Context, id string) error
}

type EquipmentRepo interface {
	Create(ctx context.Context, e *domain.EquipmentAllocation) error
	GetByID(ctx context.Context, id string) (*domain.EquipmentAllocation, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.EquipmentAllocation, error)
	Update(ctx context.Context, e *domain.EquipmentAllocation) error
	Delete(ctx context.Context, id string) error
}

type PurchaseRepo interface {
	Create(ctx context.Context, p *domain.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PurchaseOrder, error)
	Update(ctx context.Context, p *domain.PurchaseOrder) error
	Delete(ctx context.Context, id string) error
}

type InvoiceRepo interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice) error
}

type PaymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
}

type QuotationRepo interface {
	// Create and Update store the header and replace all lines.
	Create(ctx context.Context, q *domain.Quotation) error
	GetByID(ctx context.Context, id string) (*domain.Quotation, error)
	GetByReference(ctx context.Context, ref string) (*domain.Quotation, error)
	List(ctx context.Context) ([]*domain.Quotation, error)
	Update(ctx context.Context, q *domain.Quotation) error
}
