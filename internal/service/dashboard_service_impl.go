package service

import (
	"context"
	"fmt"
	"math"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

type dashboardService struct {
	engine
}

func NewDashboardService(uow db.UnitOfWork) DashboardService {
	return &dashboardService{engine: newEngine(uow, nil)}
}

func (s *dashboardService) Project(ctx context.Context, id string) (*contract.ProjectDashboard, error) {
	var out *contract.ProjectDashboard
	err := s.read(ctx, id, func(ctx context.Context, ws *workspace) error {
		st := ws.ledger.State()
		p := ws.project

		d := &contract.ProjectDashboard{
			GeneratedAt: ws.now,
			Costs:       *ws.costs(),
			KPIs:        kpis(ws),
			Variance:    varianceView(st.ExpectedTotal, st.Variance),
			Financials: contract.FinancialView{
				Invoiced:    st.Financials.Invoiced,
				Paid:        st.Financials.Paid,
				Outstanding: st.Financials.Outstanding,
			},
			Comparison: []contract.ComparisonRow{
				{Category: "material", Expected: p.Expected.Material, Actual: st.Costs.Material},
				{Category: "labor", Expected: p.Expected.Labor, Actual: st.Costs.Labor},
				{Category: "equipment", Expected: p.Expected.Equipment, Actual: st.Costs.Equipment},
				{Category: "contract", Expected: p.Expected.ContractValue, Actual: p.ContractValue},
			},
		}
		for _, sh := range costing.Breakdown(st.Costs, p.ContractValue) {
			d.Breakdown = append(d.Breakdown, contract.ShareView{
				Category: sh.Category,
				Amount:   sh.Amount,
				Percent:  sh.Percent,
			})
		}
		out = d
		return nil
	})
	return out, err
}

func kpis(ws *workspace) contract.KPIs {
	k := contract.KPIs{
		BOQItems:  len(ws.boq),
		DPRs:      len(ws.dprs),
		Equipment: len(ws.equipment),
	}
	for _, t := range ws.tasks {
		k.Tasks.Total++
		switch t.Status {
		case domain.TaskCompleted:
			k.Tasks.Completed++
		case domain.TaskInProgress:
			k.Tasks.Active++
		}
		if t.IsOverdue(ws.now) {
			k.Tasks.Overdue++
		}
	}
	if k.Tasks.Total > 0 {
		k.CompletionRate = round1(float64(k.Tasks.Completed) / float64(k.Tasks.Total) * 100)
	}
	return k
}

// varianceView describes pct, where positive means actual cost is below the
// expected total.
func varianceView(expected, pct float64) contract.VarianceView {
	if expected == 0 {
		return contract.VarianceView{Status: string(costing.NoBudget), Message: "No expected cost available"}
	}
	v := contract.VarianceView{Percent: pct, Status: string(costing.ClassifyVariance(pct))}
	switch {
	case pct > 0:
		v.Message = fmt.Sprintf("%.1f%% below the expected total cost", pct)
	case pct < 0:
		v.Message = fmt.Sprintf("%.1f%% above the expected total cost", -pct)
	default:
		v.Message = "on the expected total cost"
	}
	return v
}

// Overview reads the stored derived figures of every non-archived project.
func (s *dashboardService) Overview(ctx context.Context) (*contract.Overview, error) {
	var projects []*domain.Project
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		projects, err = r.projects.List(ctx, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	o := &contract.Overview{
		GeneratedAt:  s.now(),
		ProjectCount: len(projects),
		ByStatus:     make(map[string]int),
		Projects:     make([]contract.CostsView, 0, len(projects)),
	}
	var progress float64
	for _, p := range projects {
		o.ByStatus[string(p.Status)]++
		o.TotalContractValue += p.ContractValue
		o.TotalCost += p.TotalCost
		progress += p.ProgressPercent
		o.Projects = append(o.Projects, contract.StoredCosts(p))
	}
	if len(projects) > 0 {
		o.MeanProgress = round1(progress / float64(len(projects)))
	}
	o.TotalContractValue = costing.Round2(o.TotalContractValue)
	o.TotalCost = costing.Round2(o.TotalCost)
	return o, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
