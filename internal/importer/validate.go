package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	validEquipmentCategories = map[string]bool{"owned": true, "contractual": true}
	validEquipmentStates     = map[string]bool{"draft": true, "allocated": true, "in_use": true, "returned": true, "cancelled": true}
	validPurchaseStates      = map[string]bool{"draft": true, "purchase": true, "done": true, "cancel": true}
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	boqRefs := make(map[string]bool)
	errs = append(errs, validateBOQ(schema.BOQ, boqRefs)...)

	taskRefs := make(map[string]bool)
	errs = append(errs, validateTasks(schema.Tasks, taskRefs)...)

	errs = append(errs, validateDPRs(schema.DPRs)...)
	errs = append(errs, validateEquipment(schema.Equipment, taskRefs)...)
	errs = append(errs, validatePurchases(schema.Purchases, boqRefs)...)

	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if p.Code == "" {
		errs = append(errs, fmt.Errorf("project.code is required"))
	} else {
		candidate := domain.Project{Code: p.Code}
		if err := candidate.ValidateCode(); err != nil {
			errs = append(errs, fmt.Errorf("project.code: %w", err))
		}
	}
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	if p.Status != "" && !domain.ValidProjectStatuses[p.Status] {
		errs = append(errs, fmt.Errorf("project.status: invalid value %q", p.Status))
	}
	errs = append(errs, validateAmount("project.contract_value", p.ContractValue)...)
	if e := p.Expected; e != nil {
		errs = append(errs, validateAmount("project.expected.material", e.Material)...)
		errs = append(errs, validateAmount("project.expected.labor", e.Labor)...)
		errs = append(errs, validateAmount("project.expected.equipment", e.Equipment)...)
		errs = append(errs, validateAmount("project.expected.contract_value", e.ContractValue)...)
	}
	errs = append(errs, validateDateRange("project", p.StartDate, p.EndDate)...)

	return errs
}

func validateBOQ(items []BOQItemImport, refs map[string]bool) []error {
	var errs []error

	for i, b := range items {
		prefix := fmt.Sprintf("boq[%d]", i)

		errs = append(errs, validateRef(prefix, b.Ref, refs)...)
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if err := domain.ValidateLine(b.Quantity, b.UnitPrice); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
		errs = append(errs, validateAmount(prefix+".labor_hours", b.LaborHours)...)
		errs = append(errs, validateAmount(prefix+".labor_cost", b.LaborCost)...)
		errs = append(errs, validateParent(prefix, b.Ref, b.ParentRef, refs)...)
	}

	return errs
}

func validateTasks(tasks []TaskImport, refs map[string]bool) []error {
	var errs []error

	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		errs = append(errs, validateRef(prefix, t.Ref, refs)...)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if err := domain.ValidateProgress(t.Progress); err != nil {
			errs = append(errs, fmt.Errorf("%s.progress: %w", prefix, err))
		}
		if t.Status != "" && !domain.ValidTaskStatuses[t.Status] {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, t.Status))
		}
		errs = append(errs, validateParent(prefix, t.Ref, t.ParentRef, refs)...)
		errs = append(errs, validateDateRange(prefix, t.StartDate, t.EndDate)...)
	}

	return errs
}

func validateDPRs(reports []DPRImport) []error {
	var errs []error

	for i, d := range reports {
		prefix := fmt.Sprintf("dprs[%d]", i)

		errs = append(errs, validateRequiredDate(prefix+".date", d.Date)...)
		if d.EmployeeCount < 0 {
			errs = append(errs, fmt.Errorf("%s.employee_count must not be negative", prefix))
		}
		if d.WorkingHours != nil && !(*d.WorkingHours >= 0 && *d.WorkingHours <= 24) {
			errs = append(errs, fmt.Errorf("%s.working_hours must be between 0 and 24", prefix))
		}
		errs = append(errs, validateAmount(prefix+".per_day_cost", d.PerDayCost)...)
		for j, m := range d.Materials {
			if m.Product == "" {
				errs = append(errs, fmt.Errorf("%s.materials[%d].product is required", prefix, j))
			}
			if err := domain.ValidateLine(m.Quantity, m.UnitCost); err != nil {
				errs = append(errs, fmt.Errorf("%s.materials[%d]: %w", prefix, j, err))
			}
		}
	}

	return errs
}

func validateEquipment(allocations []EquipmentImport, taskRefs map[string]bool) []error {
	var errs []error

	for i, e := range allocations {
		prefix := fmt.Sprintf("equipment[%d]", i)

		if e.Equipment == "" {
			errs = append(errs, fmt.Errorf("%s.equipment is required", prefix))
		}
		if e.Category != "" && !validEquipmentCategories[e.Category] {
			errs = append(errs, fmt.Errorf("%s.category: invalid value %q", prefix, e.Category))
		}
		if e.State != "" && !validEquipmentStates[e.State] {
			errs = append(errs, fmt.Errorf("%s.state: invalid value %q", prefix, e.State))
		}
		rateErrs := validateAmount(prefix+".hourly_rate", e.HourlyRate)
		rateErrs = append(rateErrs, validateAmount(prefix+".total_hours", e.TotalHours)...)
		if len(rateErrs) == 0 && e.HourlyRate*e.TotalHours > domain.MaxAmount {
			rateErrs = append(rateErrs, fmt.Errorf("%s: equipment cost exceeds %g", prefix, domain.MaxAmount))
		}
		errs = append(errs, rateErrs...)
		if e.TaskRef != nil && *e.TaskRef != "" && !taskRefs[*e.TaskRef] {
			errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", prefix, *e.TaskRef))
		}
		errs = append(errs, validateRequiredDate(prefix+".allocation_date", e.AllocationDate)...)
		errs = append(errs, validateOptionalDate(prefix+".return_date", e.ReturnDate)...)
	}

	return errs
}

func validatePurchases(orders []PurchaseImport, boqRefs map[string]bool) []error {
	var errs []error

	for i, p := range orders {
		prefix := fmt.Sprintf("purchases[%d]", i)

		errs = append(errs, validateAmount(prefix+".amount", p.Amount)...)
		if p.State != "" && !validPurchaseStates[p.State] {
			errs = append(errs, fmt.Errorf("%s.state: invalid value %q", prefix, p.State))
		}
		if p.BOQRef != nil && *p.BOQRef != "" && !boqRefs[*p.BOQRef] {
			errs = append(errs, fmt.Errorf("%s.boq_ref: ref %q not found in boq", prefix, *p.BOQRef))
		}
		errs = append(errs, validateOptionalDate(prefix+".order_date", p.OrderDate)...)
	}

	return errs
}

func validateAmount(field string, v float64) []error {
	if err := domain.ValidateAmount(field, v); err != nil {
		return []error{err}
	}
	return nil
}

func validateRef(prefix, ref string, refs map[string]bool) []error {
	switch {
	case ref == "":
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	case refs[ref]:
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	}
	refs[ref] = true
	return nil
}

// validateParent requires parents to appear earlier in the list, which also
// keeps imported trees acyclic.
func validateParent(prefix, ref string, parentRef *string, refs map[string]bool) []error {
	if parentRef == nil || *parentRef == "" {
		return nil
	}
	if *parentRef == ref {
		return []error{fmt.Errorf("%s.parent_ref: %q cannot be its own parent", prefix, ref)}
	}
	if !refs[*parentRef] {
		return []error{fmt.Errorf("%s.parent_ref: ref %q not found (must appear earlier in the list)", prefix, *parentRef)}
	}
	return nil
}

func validateDateRange(prefix string, start, end *string) []error {
	errs := validateOptionalDate(prefix+".start_date", start)
	errs = append(errs, validateOptionalDate(prefix+".end_date", end)...)
	if len(errs) > 0 || start == nil || end == nil || *start == "" || *end == "" {
		return errs
	}
	s, _ := time.Parse(dateLayout, *start)
	e, _ := time.Parse(dateLayout, *end)
	if e.Before(s) {
		errs = append(errs, fmt.Errorf("%s.end_date %q is before start_date %q", prefix, *end, *start))
	}
	return errs
}

func validateRequiredDate(field, date string) []error {
	if date == "" {
		return []error{fmt.Errorf("%s is required", field)}
	}
	return validateOptionalDate(field, &date)
}

func validateOptionalDate(field string, dateStr *string) []error {
	if dateStr == nil || *dateStr == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, *dateStr); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *dateStr)}
	}
	return nil
}
