package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a project import file.
type ImportSchema struct {
	Project   ProjectImport     `json:"project" yaml:"project"`
	BOQ       []BOQItemImport   `json:"boq,omitempty" yaml:"boq,omitempty"`
	Tasks     []TaskImport      `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	DPRs      []DPRImport       `json:"dprs,omitempty" yaml:"dprs,omitempty"`
	Equipment []EquipmentImport `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Purchases []PurchaseImport  `json:"purchases,omitempty" yaml:"purchases,omitempty"`
}

// ProjectImport defines the project-level fields in the import file.
type ProjectImport struct {
	Code          string          `json:"code" yaml:"code"`
	Name          string          `json:"name" yaml:"name"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	Customer      string          `json:"customer,omitempty" yaml:"customer,omitempty"`
	Currency      string          `json:"currency,omitempty" yaml:"currency,omitempty"`
	Status        string          `json:"status,omitempty" yaml:"status,omitempty"`
	StartDate     *string         `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate       *string         `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	ContractValue float64         `json:"contract_value,omitempty" yaml:"contract_value,omitempty"`
	Expected      *ExpectedImport `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// ExpectedImport holds the budgeted figures of the project.
type ExpectedImport struct {
	Material      float64 `json:"material" yaml:"material"`
	Labor         float64 `json:"labor" yaml:"labor"`
	Equipment     float64 `json:"equipment" yaml:"equipment"`
	ContractValue float64 `json:"contract_value" yaml:"contract_value"`
}

// BOQItemImport is one bill of quantities line. A parent must appear before
// its children.
type BOQItemImport struct {
	Ref        string  `json:"ref" yaml:"ref"`
	ParentRef  *string `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	Code       string  `json:"code,omitempty" yaml:"code,omitempty"`
	Name       string  `json:"name" yaml:"name"`
	Unit       string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Quantity   float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	UnitPrice  float64 `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	LaborHours float64 `json:"labor_hours,omitempty" yaml:"labor_hours,omitempty"`
	LaborCost  float64 `json:"labor_cost,omitempty" yaml:"labor_cost,omitempty"`
}

// TaskImport is one timeline task. A parent must appear before its children.
type TaskImport struct {
	Ref        string  `json:"ref" yaml:"ref"`
	ParentRef  *string `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	Name       string  `json:"name" yaml:"name"`
	StartDate  *string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Progress   float64 `json:"progress,omitempty" yaml:"progress,omitempty"`
	Status     string  `json:"status,omitempty" yaml:"status,omitempty"`
	AssignedTo string  `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
}

// DPRImport is one daily progress report.
type DPRImport struct {
	Date          string              `json:"date" yaml:"date"`
	Summary       string              `json:"summary,omitempty" yaml:"summary,omitempty"`
	Issues        string              `json:"issues,omitempty" yaml:"issues,omitempty"`
	EmployeeCount int                 `json:"employee_count,omitempty" yaml:"employee_count,omitempty"`
	WorkingHours  *float64            `json:"working_hours,omitempty" yaml:"working_hours,omitempty"`
	PerDayCost    float64             `json:"per_day_cost,omitempty" yaml:"per_day_cost,omitempty"`
	Materials     []DPRMaterialImport `json:"materials,omitempty" yaml:"materials,omitempty"`
}

type DPRMaterialImport struct {
	Product  string  `json:"product" yaml:"product"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
	UnitCost float64 `json:"unit_cost" yaml:"unit_cost"`
}

// EquipmentImport is one equipment allocation.
type EquipmentImport struct {
	Equipment      string  `json:"equipment" yaml:"equipment"`
	TaskRef        *string `json:"task_ref,omitempty" yaml:"task_ref,omitempty"`
	Category       string  `json:"category,omitempty" yaml:"category,omitempty"`
	AllocationDate string  `json:"allocation_date" yaml:"allocation_date"`
	ReturnDate     *string `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	HourlyRate     float64 `json:"hourly_rate,omitempty" yaml:"hourly_rate,omitempty"`
	TotalHours     float64 `json:"total_hours,omitempty" yaml:"total_hours,omitempty"`
	State          string  `json:"state,omitempty" yaml:"state,omitempty"`
}

// PurchaseImport is one purchase order.
type PurchaseImport struct {
	Reference string  `json:"reference,omitempty" yaml:"reference,omitempty"`
	Supplier  string  `json:"supplier,omitempty" yaml:"supplier,omitempty"`
	BOQRef    *string `json:"boq_ref,omitempty" yaml:"boq_ref,omitempty"`
	Amount    float64 `json:"amount" yaml:"amount"`
	State     string  `json:"state,omitempty" yaml:"state,omitempty"`
	OrderDate *string `json:"order_date,omitempty" yaml:"order_date,omitempty"`
}

// LoadImportSchema reads a project import file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data, filepath.Ext(path))
}

// ParseImportSchema decodes data in the format named by ext.
func ParseImportSchema(data []byte, ext string) (*ImportSchema, error) {
	var schema ImportSchema
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	}
	return &schema, nil
}
