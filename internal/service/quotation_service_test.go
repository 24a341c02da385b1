package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotation() *domain.Quotation {
	return &domain.Quotation{
		Customer: "ACME",
		Lines: []domain.QuotationLine{{
			WorkType:         domain.WorkPainting,
			Description:      "Walls",
			SurfaceArea:      100,
			MaterialUnitCost: 2,
			LaborRatePerDay:  50,
		}},
	}
}

func TestQuotationService_CreateAppliesDefaultsAndPrices(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	q := newQuotation()
	require.NoError(t, s.quotations.Create(ctx, q))

	assert.Equal(t, "QUO-0001", q.Reference)
	assert.Equal(t, domain.QuotationDraft, q.State)
	assert.Equal(t, domain.DefaultMarginPercent, q.MarginPercent)
	assert.Equal(t, domain.DefaultVATPercent, q.VATPercent)

	l := q.Lines[0]
	assert.Equal(t, "m2", l.Unit)
	assert.Equal(t, 0.3, l.LaborDays)
	assert.Equal(t, 1, l.Sequence)
	// 100 m2 x 1.05 waste x 2 = 210 material, 0.3 days x 50 = 15 labor.
	assert.Equal(t, 210.0, l.MaterialCost)
	assert.Equal(t, 15.0, l.LaborCost)
	assert.Equal(t, 225.0, q.Subtotal)

	stored, err := s.quotations.Get(ctx, "quo-0001")
	require.NoError(t, err)
	assert.Equal(t, q.TotalAmount, stored.TotalAmount)
	require.Len(t, stored.Lines, 1)
}

func TestQuotationService_AddLineOnlyWhileDraft(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	q := newQuotation()
	require.NoError(t, s.quotations.Create(ctx, q))

	updated, err := s.quotations.AddLine(ctx, q.Reference, domain.QuotationLine{
		WorkType: domain.WorkTiling, Quantity: 10, MaterialUnitCost: 10,
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, 2, updated.Lines[1].Sequence)
	assert.Greater(t, updated.TotalAmount, q.TotalAmount)

	require.NoError(t, s.quotations.Send(ctx, q.Reference))
	_, err = s.quotations.AddLine(ctx, q.Reference, domain.QuotationLine{WorkType: domain.WorkOther})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestQuotationService_ConvertCreatesProject(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	q := newQuotation()
	require.NoError(t, s.quotations.Create(ctx, q))

	_, err := s.quotations.Convert(ctx, q.Reference, "ACME01")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "only approved quotations convert")

	require.NoError(t, s.quotations.Approve(ctx, q.Reference))
	p, err := s.quotations.Convert(ctx, q.Reference, "ACME01")
	require.NoError(t, err)

	assert.Equal(t, "ACME01", p.Code)
	assert.Equal(t, domain.ProjectDraft, p.Status)
	assert.Equal(t, 210.0, p.MaterialCost)
	assert.Equal(t, 210.0, p.Expected.Material)

	items, err := s.boq.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BOQ-"+q.Reference+"-001", items[0].Code)
	assert.Equal(t, 1, items[0].Seq)

	converted, err := s.quotations.Get(ctx, q.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationConverted, converted.State)
	require.NotNil(t, converted.ProjectID)
	assert.Equal(t, p.ID, *converted.ProjectID)
}

func TestQuotationService_RejectIsFinal(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	q := newQuotation()
	require.NoError(t, s.quotations.Create(ctx, q))
	require.NoError(t, s.quotations.Reject(ctx, q.Reference))
	assert.ErrorIs(t, s.quotations.Approve(ctx, q.Reference), domain.ErrInvalidTransition)

	list, err := s.quotations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.QuotationRejected, list[0].State)
}
