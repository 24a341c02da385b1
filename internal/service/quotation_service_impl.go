package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/quote"
	"github.com/google/uuid"
)

type quotationService struct {
	engine
	observer UseCaseObserver
}

func NewQuotationService(uow db.UnitOfWork, observers ...UseCaseObserver) QuotationService {
	return &quotationService{
		engine:   newEngine(uow, nil),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Create stores a draft quotation. Unset margin and VAT take the defaults;
// lines take their work type defaults and every total is priced.
func (s *quotationService) Create(ctx context.Context, q *domain.Quotation) (err error) {
	fields := map[string]any{"customer": q.Customer, "lines": len(q.Lines)}
	defer observe(ctx, s.observer, "create-quotation", "", fields, &err)()

	now := s.now()
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.State == "" {
		q.State = domain.QuotationDraft
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
	if q.Date.IsZero() {
		q.Date = now.Truncate(24 * time.Hour)
	}
	if q.MarginPercent == 0 {
		q.MarginPercent = domain.DefaultMarginPercent
	}
	if q.VATPercent == 0 {
		q.VATPercent = domain.DefaultVATPercent
	}
	q.CreatedAt = now
	q.UpdatedAt = now

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		if q.Reference == "" {
			existing, err := r.quotations.List(ctx)
			if err != nil {
				return err
			}
			q.Reference = fmt.Sprintf("QUO-%04d", len(existing)+1)
		}
		for i := range q.Lines {
			prepareLine(q, &q.Lines[i], i+1)
		}
		if err := q.Validate(); err != nil {
			return err
		}
		quote.Price(q)
		fields["total"] = q.TotalAmount
		return r.quotations.Create(ctx, q)
	})
}

func prepareLine(q *domain.Quotation, l *domain.QuotationLine, seq int) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.QuotationID = q.ID
	l.Sequence = seq
	quote.ApplyDefaults(l)
}

func (s *quotationService) Get(ctx context.Context, ref string) (*domain.Quotation, error) {
	var q *domain.Quotation
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		q, err = r.quotations.GetByReference(ctx, ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("quotation %q: %w", ref, err)
	}
	return q, nil
}

func (s *quotationService) List(ctx context.Context) ([]*domain.Quotation, error) {
	var out []*domain.Quotation
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.quotations.List(ctx)
		return err
	})
	return out, err
}

// AddLine appends a line to a draft quotation and reprices it.
func (s *quotationService) AddLine(ctx context.Context, ref string, line domain.QuotationLine) (q *domain.Quotation, err error) {
	fields := map[string]any{"quotation": ref, "work_type": string(line.WorkType)}
	defer observe(ctx, s.observer, "add-quotation-line", "", fields, &err)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		var err error
		q, err = r.quotations.GetByReference(ctx, ref)
		if err != nil {
			return fmt.Errorf("quotation %q: %w", ref, err)
		}
		if err := q.EnsureEditable(); err != nil {
			return err
		}
		prepareLine(q, &line, len(q.Lines)+1)
		if err := line.Validate(); err != nil {
			return err
		}
		q.Lines = append(q.Lines, line)
		quote.Price(q)
		q.UpdatedAt = s.now()
		return r.quotations.Update(ctx, q)
	})
	return q, err
}

func (s *quotationService) Send(ctx context.Context, ref string) error {
	return s.step(ctx, "send-quotation", ref, (*domain.Quotation).Send)
}

func (s *quotationService) Approve(ctx context.Context, ref string) error {
	return s.step(ctx, "approve-quotation", ref, (*domain.Quotation).Approve)
}

func (s *quotationService) Reject(ctx context.Context, ref string) error {
	return s.step(ctx, "reject-quotation", ref, (*domain.Quotation).Reject)
}

func (s *quotationService) step(ctx context.Context, name, ref string, fn func(*domain.Quotation, time.Time) error) (err error) {
	defer observe(ctx, s.observer, name, "", map[string]any{"quotation": ref}, &err)()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		q, err := r.quotations.GetByReference(ctx, ref)
		if err != nil {
			return fmt.Errorf("quotation %q: %w", ref, err)
		}
		if err := fn(q, s.now()); err != nil {
			return err
		}
		return r.quotations.Update(ctx, q)
	})
}

// Convert creates the project and its BOQ items and links the quotation, all
// in one transaction.
func (s *quotationService) Convert(ctx context.Context, ref, projectCode string) (p *domain.Project, err error) {
	fields := map[string]any{"quotation": ref, "code": projectCode}
	defer observe(ctx, s.observer, "convert-quotation", "", fields, &err)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		q, err := r.quotations.GetByReference(ctx, ref)
		if err != nil {
			return fmt.Errorf("quotation %q: %w", ref, err)
		}
		now := s.now()
		conv, err := quote.Convert(q, projectCode, now)
		if err != nil {
			return err
		}
		if err := r.projects.Create(ctx, &conv.Project); err != nil {
			return err
		}
		for i := range conv.Items {
			item := &conv.Items[i]
			if item.Seq, err = r.seqs.NextProjectSeq(ctx, item.ProjectID); err != nil {
				return err
			}
			item.TotalPrice = item.LineValue()
			if err := r.boq.Create(ctx, item); err != nil {
				return err
			}
		}
		if err := r.quotations.Update(ctx, q); err != nil {
			return err
		}

		ws, err := loadWorkspace(ctx, r, conv.Project.ID, now)
		if err != nil {
			return err
		}
		if err := ws.persist(ctx); err != nil {
			return err
		}
		p = ws.project
		fields["items"] = len(conv.Items)
		return nil
	})
	return p, err
}
