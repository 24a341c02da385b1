package domain

import (
	"fmt"
	"math"
	"time"
)

// DefaultWorkingHours is the standard site shift length.
const DefaultWorkingHours = 8

// DPR is a daily progress report for a project.
type DPR struct {
	ID            string
	ProjectID     string
	Date          time.Time
	Summary       string
	Issues        string
	EmployeeCount int
	WorkingHours  float64
	PerDayCost    float64
	Materials     []DPRMaterial
	CreatedAt     time.Time
}

// DPRMaterial is material consumed on the day of a report.
type DPRMaterial struct {
	ID       string
	DPRID    string
	Product  string
	Unit     string
	Quantity float64
	UnitCost float64
}

func (m DPRMaterial) Total() float64 {
	return m.Quantity * m.UnitCost
}

// LaborHours is head count times a standard shift.
func (d *DPR) LaborHours() float64 {
	return float64(d.EmployeeCount) * DefaultWorkingHours
}

// LaborCost is the day's labor charge: rate x hours x head count.
func (d *DPR) LaborCost() float64 {
	return d.PerDayCost * d.WorkingHours * float64(d.EmployeeCount)
}

// MaterialCost sums the materials consumed on the day.
func (d *DPR) MaterialCost() float64 {
	var total float64
	for _, m := range d.Materials {
		total += m.Total()
	}
	return total
}

func (d *DPR) Validate() error {
	if d.ProjectID == "" {
		return Invalidf("report has no project")
	}
	if d.Date.IsZero() {
		return Invalidf("report date is required")
	}
	if d.EmployeeCount < 0 {
		return Invalidf("employee count must not be negative")
	}
	if math.IsNaN(d.WorkingHours) || d.WorkingHours < 0 || d.WorkingHours > 24 {
		return Invalidf("working hours must be between 0 and 24, got %g", d.WorkingHours)
	}
	if err := ValidateAmount("per-day cost", d.PerDayCost); err != nil {
		return err
	}
	if v := d.PerDayCost * d.WorkingHours * float64(d.EmployeeCount); v > MaxAmount {
		return Invalidf("daily labor cost %g exceeds %g", v, MaxAmount)
	}
	for _, m := range d.Materials {
		if m.Product == "" {
			return Invalidf("material line has no product")
		}
		if err := ValidateLine(m.Quantity, m.UnitCost); err != nil {
			return fmt.Errorf("material %q: %w", m.Product, err)
		}
	}
	return nil
}
