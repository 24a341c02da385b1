// Package quote prices quotations and turns approved ones into projects.
// Amounts are computed in decimal and rounded to cents.
package quote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/siteledger/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// ApplyDefaults fills the unit, labor days and waste of a line from its work
// type where they are unset.
func ApplyDefaults(l *domain.QuotationLine) {
	d, ok := domain.DefaultsFor(l.WorkType)
	if !ok {
		return
	}
	if l.Unit == "" {
		l.Unit = d.Unit
	}
	if l.LaborDays == 0 {
		l.LaborDays = d.LaborDays
	}
	if l.WastePercent == 0 {
		l.WastePercent = d.WastePercent
	}
}

// BaseQuantity is the surface area when given, the quantity otherwise.
func BaseQuantity(l *domain.QuotationLine) float64 {
	if l.SurfaceArea > 0 {
		return l.SurfaceArea
	}
	return l.Quantity
}

// PriceLine computes the material, labor and total of one line.
func PriceLine(l *domain.QuotationLine) {
	waste := decimal.NewFromInt(1).Add(dec(l.WastePercent).Div(hundred))
	material := dec(BaseQuantity(l)).Mul(waste).Mul(dec(l.MaterialUnitCost))
	labor := dec(l.LaborDays).Mul(dec(l.LaborRatePerDay))
	total := material.Add(labor).Add(dec(l.EquipmentCost))

	l.MaterialCost = money(material)
	l.LaborCost = money(labor)
	l.LineTotal = money(total)
}

// Price recomputes every line and the quotation totals.
func Price(q *domain.Quotation) {
	var material, labor, equipment decimal.Decimal
	for i := range q.Lines {
		l := &q.Lines[i]
		PriceLine(l)
		material = material.Add(dec(l.MaterialCost))
		labor = labor.Add(dec(l.LaborCost))
		equipment = equipment.Add(dec(l.EquipmentCost))
	}

	subtotal := material.Add(labor).Add(equipment).Add(dec(q.TransportCost))
	margin := subtotal.Mul(dec(q.MarginPercent)).Div(hundred)
	vat := subtotal.Add(margin).Mul(dec(q.VATPercent)).Div(hundred)

	q.MaterialTotal = money(material)
	q.LaborTotal = money(labor)
	q.EquipmentTotal = money(equipment)
	q.Subtotal = money(subtotal)
	q.MarginAmount = money(margin)
	q.VATAmount = money(vat)
	q.TotalAmount = money(subtotal.Add(margin).Add(vat))
}

// Conversion is what converting a quotation creates.
type Conversion struct {
	Project domain.Project
	Items   []domain.BOQItem
}

// Convert builds the project and BOQ items for an approved quotation and
// marks it converted. The quotation is repriced first so the project starts
// from current totals.
func Convert(q *domain.Quotation, projectCode string, now time.Time) (Conversion, error) {
	if q.State != domain.QuotationApproved {
		return Conversion{}, fmt.Errorf("%w: only approved quotations can be converted, current state: %s",
			domain.ErrInvalidTransition, q.State)
	}
	Price(q)

	contract := q.ContractValue
	if contract == 0 {
		contract = q.TotalAmount
	}

	p := domain.Project{
		ID:            uuid.New().String(),
		Code:          projectCode,
		Name:          fmt.Sprintf("%s - %s", q.Customer, q.Reference),
		Customer:      q.Customer,
		Currency:      q.Currency,
		Description:   q.Notes,
		Status:        domain.ProjectDraft,
		ContractValue: contract,
		Expected: domain.ExpectedCosts{
			Material:      q.MaterialTotal,
			Labor:         q.LaborTotal,
			Equipment:     q.EquipmentTotal,
			ContractValue: contract,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return Conversion{}, fmt.Errorf("converting quotation %s: %w", q.Reference, err)
	}

	items := make([]domain.BOQItem, 0, len(q.Lines))
	for i, l := range q.Lines {
		qty := BaseQuantity(&l)
		var unitPrice float64
		if qty != 0 {
			unitPrice = money(dec(l.MaterialCost).Div(dec(qty)))
		}
		name := l.Description
		if name == "" {
			name = string(l.WorkType)
		}
		items = append(items, domain.BOQItem{
			ID:         uuid.New().String(),
			ProjectID:  p.ID,
			Code:       fmt.Sprintf("BOQ-%s-%03d", q.Reference, i+1),
			Name:       name,
			Unit:       l.Unit,
			Quantity:   qty,
			UnitPrice:  unitPrice,
			LaborHours: l.LaborDays * domain.DefaultWorkingHours,
			LaborCost:  l.LaborCost,
			OrderIndex: i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := q.MarkConverted(p.ID, now); err != nil {
		return Conversion{}, err
	}
	return Conversion{Project: p, Items: items}, nil
}
