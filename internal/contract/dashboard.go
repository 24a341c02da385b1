package contract

import (
	"time"

	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/domain"
)

// CostsView is the derived cost and progress figures of one project.
type CostsView struct {
	ProjectID         string  `json:"project_id"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	MaterialCost      float64 `json:"material_cost"`
	LaborCost         float64 `json:"labor_cost"`
	EquipmentCost     float64 `json:"equipment_cost"`
	ContractValue     float64 `json:"contract_value"`
	TotalCost         float64 `json:"total_cost"`
	ProgressPercent   float64 `json:"progress_percent"`
	ExpectedTotalCost float64 `json:"expected_total_cost"`
	VariancePercent   float64 `json:"variance_percent"`
}

type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
}

type KPIs struct {
	Tasks          TaskCounts `json:"tasks"`
	CompletionRate float64    `json:"completion_rate"`
	BOQItems       int        `json:"boq_items"`
	DPRs           int        `json:"dprs"`
	Equipment      int        `json:"equipment"`
}

// VarianceView explains how actual cost compares to the budget.
type VarianceView struct {
	Percent float64 `json:"percent"`
	Status  string  `json:"status"`
	Message string  `json:"message"`
}

type ShareView struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

type ComparisonRow struct {
	Category string  `json:"category"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

type FinancialView struct {
	Invoiced    float64 `json:"invoiced"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
}

// ProjectDashboard is everything the per-project dashboard shows.
type ProjectDashboard struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Costs       CostsView       `json:"costs"`
	KPIs        KPIs            `json:"kpis"`
	Variance    VarianceView    `json:"variance"`
	Breakdown   []ShareView     `json:"breakdown"`
	Comparison  []ComparisonRow `json:"comparison"`
	Financials  FinancialView   `json:"financials"`
}

// Overview summarizes every non-archived project.
type Overview struct {
	GeneratedAt        time.Time      `json:"generated_at"`
	ProjectCount       int            `json:"project_count"`
	ByStatus           map[string]int `json:"by_status"`
	TotalContractValue float64        `json:"total_contract_value"`
	TotalCost          float64        `json:"total_cost"`
	MeanProgress       float64        `json:"mean_progress"`
	Projects           []CostsView    `json:"projects"`
}

// StoredCosts reads the derived figures persisted on a project.
func StoredCosts(p *domain.Project) CostsView {
	return CostsView{
		ProjectID:         p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Status:            string(p.Status),
		MaterialCost:      p.MaterialCost,
		LaborCost:         p.LaborCost,
		EquipmentCost:     p.EquipmentCost,
		ContractValue:     p.ContractValue,
		TotalCost:         p.TotalCost,
		ProgressPercent:   p.ProgressPercent,
		ExpectedTotalCost: p.ExpectedTotalCost,
		VariancePercent:   costing.Variance(p.ExpectedTotalCost, p.TotalCost),
	}
}
