package domain

import (
	"fmt"
	"time"
)

const (
	DefaultMarginPercent = 15.0
	DefaultVATPercent    = 18.0
	DefaultWastePercent  = 5.0
)

// Quotation is a priced offer to a customer that can become a project.
type Quotation struct {
	ID            string
	Reference     string
	Customer      string
	Currency      string
	Date          time.Time
	ValidUntil    *time.Time
	Lines         []QuotationLine
	TransportCost float64
	MarginPercent float64
	VATPercent    float64
	ContractValue float64
	Notes         string
	State         QuotationState
	ProjectID     *string

	// Computed from Lines.
	MaterialTotal  float64
	LaborTotal     float64
	EquipmentTotal float64
	Subtotal       float64
	MarginAmount   float64
	VATAmount      float64
	TotalAmount    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuotationLine prices one kind of work.
type QuotationLine struct {
	ID               string
	QuotationID      string
	Sequence         int
	WorkType         WorkType
	Description      string
	SurfaceArea      float64
	Quantity         float64
	Unit             string
	WastePercent     float64
	MaterialUnitCost float64
	LaborDays        float64
	LaborRatePerDay  float64
	EquipmentCost    float64

	// Computed.
	MaterialCost float64
	LaborCost    float64
	LineTotal    float64
}

// WorkTypeDefaults are the unit, labor days and waste applied when a line of
// the given work type leaves them unset.
type WorkTypeDefaults struct {
	Unit         string
	LaborDays    float64
	WastePercent float64
}

var workTypeDefaults = map[WorkType]WorkTypeDefaults{
	WorkCeilingPlaster: {Unit: "m2", LaborDays: 0.5, WastePercent: 10},
	WorkPainting:       {Unit: "m2", LaborDays: 0.3, WastePercent: 5},
	WorkTiling:         {Unit: "m2", LaborDays: 0.8, WastePercent: 10},
	WorkPartition:      {Unit: "m2", LaborDays: 1.0, WastePercent: 5},
}

// DefaultsFor returns the defaults of a work type, if it has any.
func DefaultsFor(w WorkType) (WorkTypeDefaults, bool) {
	d, ok := workTypeDefaults[w]
	return d, ok
}

func (l *QuotationLine) Validate() error {
	if !ValidWorkTypes[string(l.WorkType)] {
		return Invalidf("invalid work type %q", l.WorkType)
	}
	if err := ValidateAmount("quantity", l.Quantity); err != nil {
		return err
	}
	if err := ValidateAmount("surface area", l.SurfaceArea); err != nil {
		return err
	}
	if err := ValidateAmount("waste percent", l.WastePercent); err != nil {
		return err
	}
	if err := ValidateLine(max(l.Quantity, l.SurfaceArea), l.MaterialUnitCost); err != nil {
		return err
	}
	if err := ValidateLine(l.LaborDays, l.LaborRatePerDay); err != nil {
		return err
	}
	if err := ValidateAmount("equipment cost", l.EquipmentCost); err != nil {
		return err
	}
	return nil
}

func (q *Quotation) Validate() error {
	if q.Reference == "" {
		return Invalidf("quotation reference is required")
	}
	if q.Customer == "" {
		return Invalidf("quotation customer is required")
	}
	if err := ValidateAmount("margin percent", q.MarginPercent); err != nil {
		return err
	}
	if err := ValidateAmount("VAT percent", q.VATPercent); err != nil {
		return err
	}
	if err := ValidateAmount("transport cost", q.TransportCost); err != nil {
		return err
	}
	if err := ValidateAmount("contract value", q.ContractValue); err != nil {
		return err
	}
	for i := range q.Lines {
		if err := q.Lines[i].Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// EnsureEditable rejects line changes once the quotation left draft.
func (q *Quotation) EnsureEditable() error {
	if q.State != QuotationDraft {
		return fmt.Errorf("%w: quotation %s is %s", ErrInvalidTransition, q.Reference, q.State)
	}
	return nil
}

func (q *Quotation) Send(now time.Time) error {
	if q.State != QuotationDraft {
		return fmt.Errorf("%w: cannot send a %s quotation", ErrInvalidTransition, q.State)
	}
	q.State = QuotationSent
	q.UpdatedAt = now
	return nil
}

func (q *Quotation) Approve(now time.Time) error {
	if q.State != QuotationDraft && q.State != QuotationSent {
		return fmt.Errorf("%w: cannot approve a %s quotation", ErrInvalidTransition, q.State)
	}
	q.State = QuotationApproved
	q.UpdatedAt = now
	return nil
}

func (q *Quotation) Reject(now time.Time) error {
	if q.State != QuotationDraft && q.State != QuotationSent {
		return fmt.Errorf("%w: cannot reject a %s quotation", ErrInvalidTransition, q.State)
	}
	q.State = QuotationRejected
	q.UpdatedAt = now
	return nil
}

// MarkConverted links the quotation to the project created from it.
func (q *Quotation) MarkConverted(projectID string, now time.Time) error {
	if q.State != QuotationApproved {
		return fmt.Errorf("%w: only approved quotations can be converted, current state: %s", ErrInvalidTransition, q.State)
	}
	q.ProjectID = &projectID
	q.State = QuotationConverted
	q.UpdatedAt = now
	return nil
}
