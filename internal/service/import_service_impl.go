package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/importer"
)

// ErrInvalidImport marks an import file that failed validation.
var ErrInvalidImport = errors.New("import validation failed")

type importService struct {
	engine
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		engine:   newEngine(uow, nil),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportProject(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema writes every record in one transaction, then derives the
// project figures in a single ledger load.
func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (res *ImportResult, err error) {
	fields := map[string]any{"code": schema.Project.Code}
	defer observe(ctx, s.observer, "import-project", "", fields, &err)()

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	now := s.now()
	conv, err := importer.Convert(schema, now)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newRepos(tx)
		if err := r.projects.Create(ctx, conv.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		for _, b := range conv.BOQ {
			seq, err := r.seqs.NextProjectSeq(ctx, conv.Project.ID)
			if err != nil {
				return err
			}
			b.Seq = seq
			if err := r.boq.Create(ctx, b); err != nil {
				return fmt.Errorf("creating BOQ item %q: %w", b.Name, err)
			}
		}
		for _, t := range conv.Tasks {
			seq, err := r.seqs.NextProjectSeq(ctx, conv.Project.ID)
			if err != nil {
				return err
			}
			t.Seq = seq
			if err := r.tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Name, err)
			}
		}
		for _, d := range conv.DPRs {
			if err := r.dprs.Create(ctx, d); err != nil {
				return fmt.Errorf("creating DPR for %s: %w", d.Date.Format("2006-01-02"), err)
			}
		}
		for _, e := range conv.Equipment {
			if err := r.equipment.Create(ctx, e); err != nil {
				return fmt.Errorf("creating allocation %q: %w", e.Equipment, err)
			}
		}
		for _, po := range conv.Purchases {
			if err := r.purchases.Create(ctx, po); err != nil {
				return fmt.Errorf("creating purchase order %q: %w", po.Reference, err)
			}
		}

		ws, err := loadWorkspace(ctx, r, conv.Project.ID, now)
		if err != nil {
			return err
		}
		if err := ws.persist(ctx); err != nil {
			return err
		}
		*conv.Project = *ws.project
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["boq"] = len(conv.BOQ)
	fields["tasks"] = len(conv.Tasks)
	return &ImportResult{
		Project:        conv.Project,
		BOQCount:       len(conv.BOQ),
		TaskCount:      len(conv.Tasks),
		DPRCount:       len(conv.DPRs),
		EquipmentCount: len(conv.Equipment),
		PurchaseCount:  len(conv.Purchases),
	}, nil
}

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - " + e.Error())
	}
	return fmt.Errorf("%w %s", ErrInvalidImport, b.String())
}
