package domain

import "time"

// BOQItem is one line of a bill of quantities. Items nest; a parent's
// TotalPrice is the sum of its children, a leaf's is Quantity x UnitPrice.
// Seq is the project-scoped number shared with tasks.
type BOQItem struct {
	ID         string
	ProjectID  string
	ParentID   *string
	Seq        int
	Code       string
	Name       string
	Unit       string
	Quantity   float64
	UnitPrice  float64
	TotalPrice float64
	LaborHours float64
	LaborCost  float64
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineValue is the item's own value, used while it has no children.
func (b *BOQItem) LineValue() float64 {
	return b.Quantity * b.UnitPrice
}

func (b *BOQItem) Validate() error {
	if b.Name == "" {
		return Invalidf("BOQ item name is required")
	}
	if b.ProjectID == "" {
		return Invalidf("BOQ item %q has no project", b.Name)
	}
	if b.ParentID != nil && *b.ParentID == b.ID {
		return Invalidf("BOQ item %q cannot be its own parent", b.Name)
	}
	if err := ValidateLine(b.Quantity, b.UnitPrice); err != nil {
		return err
	}
	if err := ValidateAmount("labor hours", b.LaborHours); err != nil {
		return err
	}
	return ValidateAmount("labor cost", b.LaborCost)
}
