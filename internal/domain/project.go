package domain

import (
	"fmt"
	"regexp"
	"time"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

type Project struct {
	ID          string
	Code        string
	Name        string
	Description string
	Customer    string
	Currency    string
	Status      ProjectStatus

	StartDate     *time.Time
	EndDate       *time.Time
	ExpectedStart *time.Time
	ExpectedEnd   *time.Time

	ContractValue float64
	Expected      ExpectedCosts

	// Derived by the recompute engine; never written by callers.
	MaterialCost      float64
	LaborCost         float64
	EquipmentCost     float64
	TotalCost         float64
	ProgressPercent   float64
	ExpectedTotalCost float64
	TotalInvoiced     float64
	TotalPaid         float64

	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExpectedCosts are the budgeted figures a project is measured against.
type ExpectedCosts struct {
	Material      float64
	Labor         float64
	Equipment     float64
	ContractValue float64
}

// Validate checks every budgeted figure is a finite, non-negative amount.
func (e ExpectedCosts) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"expected material", e.Material},
		{"expected labor", e.Labor},
		{"expected equipment", e.Equipment},
		{"expected contract value", e.ContractValue},
	} {
		if err := ValidateAmount(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func (e ExpectedCosts) Total() float64 {
	return e.Material + e.Labor + e.Equipment + e.ContractValue
}

// ValidateCode checks that Code is non-empty and matches the required
// format: 3-6 uppercase letters followed by 2-4 digits (e.g. VILLA01).
func (p *Project) ValidateCode() error {
	if p.Code == "" {
		return Invalidf("project code is required")
	}
	if !codePattern.MatchString(p.Code) {
		return Invalidf("project code %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. VILLA01)", p.Code)
	}
	return nil
}

// Validate checks the fields callers may set.
func (p *Project) Validate() error {
	if p.Name == "" {
		return Invalidf("project name is required")
	}
	if err := p.ValidateCode(); err != nil {
		return err
	}
	if err := ValidateAmount("contract value", p.ContractValue); err != nil {
		return err
	}
	if err := p.Expected.Validate(); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return Invalidf("end date %s is before start date %s",
			p.EndDate.Format("2006-01-02"), p.StartDate.Format("2006-01-02"))
	}
	return nil
}

// DisplayID returns the best short identifier for display.
// It prefers Code; if empty it truncates ID to 8 characters.
func (p *Project) DisplayID() string {
	if p.Code != "" {
		return p.Code
	}
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}

// IsLocked reports whether the project refuses further mutations.
func (p *Project) IsLocked() bool {
	return p.Status == ProjectArchived || p.Status == ProjectCancelled
}

// EnsureMutable returns ErrProjectLocked for archived or cancelled projects.
func (p *Project) EnsureMutable() error {
	if p.IsLocked() {
		return fmt.Errorf("%w: %s is %s", ErrProjectLocked, p.DisplayID(), p.Status)
	}
	return nil
}

func (p *Project) Activate(now time.Time) error {
	if p.Status != ProjectDraft {
		return fmt.Errorf("%w: cannot activate a %s project", ErrInvalidTransition, p.Status)
	}
	p.Status = ProjectActive
	if p.StartDate == nil {
		start := now.Truncate(24 * time.Hour)
		p.StartDate = &start
	}
	p.UpdatedAt = now
	return nil
}

func (p *Project) Complete(now time.Time) error {
	if p.Status != ProjectActive {
		return fmt.Errorf("%w: cannot complete a %s project", ErrInvalidTransition, p.Status)
	}
	p.Status = ProjectCompleted
	if p.EndDate == nil {
		end := now.Truncate(24 * time.Hour)
		p.EndDate = &end
	}
	p.UpdatedAt = now
	return nil
}

func (p *Project) Cancel(now time.Time) error {
	if p.Status != ProjectDraft && p.Status != ProjectActive {
		return fmt.Errorf("%w: cannot cancel a %s project", ErrInvalidTransition, p.Status)
	}
	p.Status = ProjectCancelled
	p.UpdatedAt = now
	return nil
}

func (p *Project) Archive(now time.Time) error {
	if p.Status == ProjectArchived {
		return fmt.Errorf("%w: project is already archived", ErrInvalidTransition)
	}
	p.Status = ProjectArchived
	p.ArchivedAt = &now
	p.UpdatedAt = now
	return nil
}

// ProgressInvoiceAmount returns the share of the contract value billed at pct
// percent completion.
func (p *Project) ProgressInvoiceAmount(pct float64) (float64, error) {
	if !(pct > 0 && pct <= 100) {
		return 0, Invalidf("billing percentage must be in (0, 100], got %g", pct)
	}
	return p.ContractValue * pct / 100, nil
}
