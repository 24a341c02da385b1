package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/costing"
)

// FormatDashboard renders the per-project dashboard.
func FormatDashboard(d *contract.ProjectDashboard, currency string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n\n", StyleBold.Render(d.Costs.Name), Dim(d.Costs.Code)))
	b.WriteString(costCard(&d.Costs, currency))

	b.WriteString("\n" + Header("Variance") + "\n")
	if d.Variance.Status == string(costing.NoBudget) {
		b.WriteString(Dim(d.Variance.Message) + "\n")
	} else {
		b.WriteString(VarianceColor(d.Variance.Percent).Render(fmt.Sprintf("%+.1f%% %s", d.Variance.Percent, d.Variance.Status)))
		b.WriteString("  " + Dim(d.Variance.Message) + "\n")
	}

	b.WriteString("\n" + Header("Tasks") + "\n")
	k := d.KPIs
	b.WriteString(fmt.Sprintf("%d total  %s  %s  %s\n",
		k.Tasks.Total,
		StyleGreen.Render(fmt.Sprintf("%d completed", k.Tasks.Completed)),
		StyleYellow.Render(fmt.Sprintf("%d active", k.Tasks.Active)),
		StyleRed.Render(fmt.Sprintf("%d overdue", k.Tasks.Overdue)),
	))
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("COMPLETION"), RenderProgress(k.CompletionRate, 20)))
	b.WriteString(Dim(fmt.Sprintf("%d BOQ items, %d daily reports, %d equipment allocations", k.BOQItems, k.DPRs, k.Equipment)) + "\n")

	if len(d.Breakdown) > 0 {
		b.WriteString("\n" + Header("Breakdown") + "\n")
		rows := make([][]string, 0, len(d.Breakdown))
		for _, s := range d.Breakdown {
			rows = append(rows, []string{s.Category, Money(s.Amount, currency), fmt.Sprintf("%.1f%%", s.Percent)})
		}
		b.WriteString(RenderTable([]string{"CATEGORY", "AMOUNT", "SHARE"}, rows))
	}

	if len(d.Comparison) > 0 {
		b.WriteString("\n" + Header("Budget vs actual") + "\n")
		rows := make([][]string, 0, len(d.Comparison))
		for _, c := range d.Comparison {
			actual := Money(c.Actual, currency)
			if c.Expected > 0 && c.Actual > c.Expected {
				actual = StyleRed.Render(actual)
			}
			rows = append(rows, []string{c.Category, Money(c.Expected, currency), actual})
		}
		b.WriteString(RenderTable([]string{"CATEGORY", "EXPECTED", "ACTUAL"}, rows))
	}

	f := d.Financials
	b.WriteString("\n" + Header("Billing") + "\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		Dim("invoiced"), Money(f.Invoiced, currency),
		Dim("paid"), Money(f.Paid, currency),
		Dim("outstanding"), Money(f.Outstanding, currency)))

	b.WriteString("\n" + Dim("generated "+d.GeneratedAt.Format("2006-01-02 15:04")))
	return RenderBox("Dashboard", b.String())
}

// FormatOverview renders the cross-project summary.
func FormatOverview(o *contract.Overview) string {
	var b strings.Builder

	statuses := make([]string, 0, len(o.ByStatus))
	for s := range o.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	counts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		counts = append(counts, fmt.Sprintf("%d %s", o.ByStatus[s], s))
	}

	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(fmt.Sprintf("%d projects", o.ProjectCount)), Dim(strings.Join(counts, ", "))))
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("CONTRACTS"), Amount(o.TotalContractValue)))
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("COST     "), Amount(o.TotalCost)))
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("PROGRESS "), RenderProgress(o.MeanProgress, 20)))

	if len(o.Projects) > 0 {
		rows := make([][]string, 0, len(o.Projects))
		for _, c := range o.Projects {
			rows = append(rows, []string{
				c.Code,
				Bold(c.Name),
				StatePill(c.Status),
				Amount(c.TotalCost),
				RenderProgress(c.ProgressPercent, 10),
				formatVariance(c.VariancePercent),
			})
		}
		b.WriteString("\n" + RenderTable([]string{"CODE", "NAME", "STATUS", "TOTAL COST", "PROGRESS", "VARIANCE"}, rows))
	}
	return RenderBox("Overview", b.String())
}
