package domain

import (
	"fmt"
	"math"
	"time"
)

// EquipmentAllocation assigns a piece of equipment to a project for a span of
// days, billed by logged hours or by the day.
type EquipmentAllocation struct {
	ID               string
	ProjectID        string
	TaskID           *string
	Reference        string
	Equipment        string
	Category         EquipmentCategory
	AllocationDate   time.Time
	ReturnDate       *time.Time
	ActualReturnDate *time.Time
	HourlyRate       float64
	TotalHours       float64
	State            EquipmentState
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DailyRate is the hourly rate over a standard shift.
func (e *EquipmentAllocation) DailyRate() float64 {
	return e.HourlyRate * DefaultWorkingHours
}

// TotalDays counts days from allocation through the actual return, the
// planned return or today, inclusive. It is 0 when the end precedes the start.
func (e *EquipmentAllocation) TotalDays(today time.Time) int {
	if e.AllocationDate.IsZero() {
		return 0
	}
	end := today
	switch {
	case e.ActualReturnDate != nil:
		end = *e.ActualReturnDate
	case e.ReturnDate != nil:
		end = *e.ReturnDate
	}
	start := truncateDay(e.AllocationDate)
	end = truncateDay(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// TotalCost bills logged hours when there are any, else whole days.
func (e *EquipmentAllocation) TotalCost(today time.Time) float64 {
	if e.TotalHours > 0 {
		return e.TotalHours * e.HourlyRate
	}
	return float64(e.TotalDays(today)) * e.DailyRate()
}

func (e *EquipmentAllocation) Validate() error {
	if e.ProjectID == "" {
		return Invalidf("allocation has no project")
	}
	if e.Equipment == "" {
		return Invalidf("equipment name is required")
	}
	if e.AllocationDate.IsZero() {
		return Invalidf("allocation date is required")
	}
	if err := ValidateAmount("hourly rate", e.HourlyRate); err != nil {
		return err
	}
	if err := ValidateAmount("hours", e.TotalHours); err != nil {
		return err
	}
	if v := e.HourlyRate * e.TotalHours; v > MaxAmount {
		return Invalidf("equipment cost %g exceeds %g", v, MaxAmount)
	}
	if e.Category != "" && e.Category != EquipmentOwned && e.Category != EquipmentContractual {
		return Invalidf("invalid equipment category %q", e.Category)
	}
	return nil
}

func (e *EquipmentAllocation) Allocate(now time.Time) error {
	if e.State != EquipmentDraft {
		return fmt.Errorf("%w: cannot allocate %s equipment", ErrInvalidTransition, e.State)
	}
	e.State = EquipmentAllocated
	e.UpdatedAt = now
	return nil
}

func (e *EquipmentAllocation) StartUse(now time.Time) error {
	if e.State != EquipmentAllocated {
		return fmt.Errorf("%w: cannot start using %s equipment", ErrInvalidTransition, e.State)
	}
	e.State = EquipmentInUse
	e.UpdatedAt = now
	return nil
}

// LogUsage adds hours worked to the allocation.
func (e *EquipmentAllocation) LogUsage(hours float64, now time.Time) error {
	if math.IsNaN(hours) || hours <= 0 {
		return Invalidf("usage hours must be positive, got %g", hours)
	}
	if err := ValidateAmount("hours", e.TotalHours+hours); err != nil {
		return err
	}
	if v := (e.TotalHours + hours) * e.HourlyRate; v > MaxAmount {
		return Invalidf("equipment cost %g exceeds %g", v, MaxAmount)
	}
	if e.State == EquipmentReturned || e.State == EquipmentCancelled {
		return fmt.Errorf("%w: cannot log usage on %s equipment", ErrInvalidTransition, e.State)
	}
	e.TotalHours += hours
	e.UpdatedAt = now
	return nil
}

func (e *EquipmentAllocation) Return(now time.Time) error {
	if e.State == EquipmentReturned || e.State == EquipmentCancelled {
		return fmt.Errorf("%w: cannot return %s equipment", ErrInvalidTransition, e.State)
	}
	day := truncateDay(now)
	e.ActualReturnDate = &day
	e.State = EquipmentReturned
	e.UpdatedAt = now
	return nil
}

func (e *EquipmentAllocation) Cancel(now time.Time) error {
	if e.State == EquipmentReturned {
		return fmt.Errorf("%w: cannot cancel returned equipment", ErrInvalidTransition)
	}
	e.State = EquipmentCancelled
	e.UpdatedAt = now
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
