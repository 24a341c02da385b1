package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/siteledger/internal/domain"
)

func sampleQuotation() *domain.Quotation {
	return &domain.Quotation{
		Reference:     "Q0007",
		Customer:      "Acme",
		Currency:      "USD",
		TransportCost: 35,
		MarginPercent: domain.DefaultMarginPercent,
		VATPercent:    domain.DefaultVATPercent,
		State:         domain.QuotationDraft,
		Lines: []domain.QuotationLine{
			{
				WorkType:         domain.WorkCeilingPlaster,
				Description:      "Ceiling",
				SurfaceArea:      10,
				Quantity:         99,
				WastePercent:     10,
				MaterialUnitCost: 5,
				LaborDays:        0.5,
				LaborRatePerDay:  100,
				EquipmentCost:    20,
			},
			{
				WorkType:         domain.WorkOther,
				Quantity:         4,
				Unit:             "pcs",
				MaterialUnitCost: 25,
				LaborDays:        1,
				LaborRatePerDay:  40,
			},
		},
	}
}

func TestPriceLine_SurfaceAreaTakesPrecedence(t *testing.T) {
	q := sampleQuotation()
	PriceLine(&q.Lines[0])

	assert.Equal(t, 55.0, q.Lines[0].MaterialCost)
	assert.Equal(t, 50.0, q.Lines[0].LaborCost)
	assert.Equal(t, 125.0, q.Lines[0].LineTotal)
}

func TestPriceLine_QuantityWhenNoSurface(t *testing.T) {
	q := sampleQuotation()
	PriceLine(&q.Lines[1])

	assert.Equal(t, 100.0, q.Lines[1].MaterialCost)
	assert.Equal(t, 40.0, q.Lines[1].LaborCost)
	assert.Equal(t, 140.0, q.Lines[1].LineTotal)
}

func TestPrice_Totals(t *testing.T) {
	q := sampleQuotation()
	Price(q)

	assert.Equal(t, 155.0, q.MaterialTotal)
	assert.Equal(t, 90.0, q.LaborTotal)
	assert.Equal(t, 20.0, q.EquipmentTotal)
	assert.Equal(t, 300.0, q.Subtotal)
	assert.Equal(t, 45.0, q.MarginAmount)
	assert.Equal(t, 62.1, q.VATAmount)
	assert.Equal(t, 407.1, q.TotalAmount)
}

func TestPrice_EmptyQuotation(t *testing.T) {
	q := &domain.Quotation{MarginPercent: 15, VATPercent: 18}
	Price(q)
	assert.Zero(t, q.TotalAmount)
}

func TestApplyDefaults(t *testing.T) {
	l := domain.QuotationLine{WorkType: domain.WorkTiling}
	ApplyDefaults(&l)
	assert.Equal(t, "m2", l.Unit)
	assert.Equal(t, 0.8, l.LaborDays)
	assert.Equal(t, 10.0, l.WastePercent)

	kept := domain.QuotationLine{WorkType: domain.WorkPainting, Unit: "m", LaborDays: 2}
	ApplyDefaults(&kept)
	assert.Equal(t, "m", kept.Unit)
	assert.Equal(t, 2.0, kept.LaborDays)
	assert.Equal(t, 5.0, kept.WastePercent)

	none := domain.QuotationLine{WorkType: domain.WorkOther}
	ApplyDefaults(&none)
	assert.Empty(t, none.Unit)
}

func TestConvert_RequiresApproval(t *testing.T) {
	q := sampleQuotation()
	_, err := Convert(q, "ACME01", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Nil(t, q.ProjectID)
}

func TestConvert_BuildsProjectAndItems(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := sampleQuotation()
	require.NoError(t, q.Approve(now))

	conv, err := Convert(q, "ACME01", now)
	require.NoError(t, err)

	p := conv.Project
	assert.Equal(t, "ACME01", p.Code)
	assert.Equal(t, domain.ProjectDraft, p.Status)
	assert.Equal(t, 407.1, p.ContractValue)
	assert.Equal(t, 155.0, p.Expected.Material)
	assert.Equal(t, 90.0, p.Expected.Labor)
	assert.Equal(t, 20.0, p.Expected.Equipment)

	require.Len(t, conv.Items, 2)
	assert.Equal(t, "BOQ-Q0007-001", conv.Items[0].Code)
	assert.Equal(t, "Ceiling", conv.Items[0].Name)
	assert.Equal(t, 10.0, conv.Items[0].Quantity)
	assert.Equal(t, 5.5, conv.Items[0].UnitPrice)
	assert.Equal(t, "BOQ-Q0007-002", conv.Items[1].Code)
	assert.Equal(t, "other", conv.Items[1].Name)
	assert.Equal(t, 25.0, conv.Items[1].UnitPrice)
	for _, it := range conv.Items {
		assert.Equal(t, p.ID, it.ProjectID)
		assert.Nil(t, it.ParentID)
	}

	assert.Equal(t, domain.QuotationConverted, q.State)
	require.NotNil(t, q.ProjectID)
	assert.Equal(t, p.ID, *q.ProjectID)
}

func TestConvert_ExplicitContractValueAndZeroQuantity(t *testing.T) {
	now := time.Now()
	q := sampleQuotation()
	q.ContractValue = 5000
	q.Lines = append(q.Lines, domain.QuotationLine{WorkType: domain.WorkElectrical, EquipmentCost: 80})
	require.NoError(t, q.Approve(now))

	conv, err := Convert(q, "ACME02", now)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, conv.Project.ContractValue)
	assert.Equal(t, 5000.0, conv.Project.Expected.ContractValue)
	assert.Zero(t, conv.Items[2].UnitPrice)
}

func TestConvert_RejectsBadProjectCode(t *testing.T) {
	q := sampleQuotation()
	require.NoError(t, q.Approve(time.Now()))

	_, err := Convert(q, "bad", time.Now())
	require.Error(t, err)
	assert.Equal(t, domain.QuotationApproved, q.State)
}
