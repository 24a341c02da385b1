package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// FormatProjectList renders projects with their stored roll-up figures.
func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return RenderBox("Projects", Dim("No projects yet. Create one with: siteledger project add"))
	}

	headers := []string{"CODE", "NAME", "STATUS", "TOTAL COST", "PROGRESS", "VARIANCE"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		c := contract.StoredCosts(p)
		rows = append(rows, []string{
			p.DisplayID(),
			Bold(p.Name),
			StatusPill(p.Status),
			Money(c.TotalCost, p.Currency),
			RenderProgress(c.ProgressPercent, 10),
			formatVariance(c.VariancePercent),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// FormatProject renders one project's details beside its cost card.
func FormatProject(p *domain.Project, costs *contract.CostsView) string {
	var meta strings.Builder
	meta.WriteString(StyleBold.Render(p.Name) + "\n")
	if p.Customer != "" {
		meta.WriteString(StylePurple.Render(p.Customer) + "\n")
	}
	meta.WriteString("\n")
	field := func(label, value string) {
		meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-8s", label)), value))
	}
	field("CODE", p.Code)
	field("STATUS", StatusPill(p.Status))
	field("START", Date(p.StartDate))
	field("END", Date(p.EndDate))
	if p.ExpectedEnd != nil {
		field("DUE", Date(p.ExpectedEnd))
	}
	field("ID", TruncID(p.ID))
	if p.Description != "" {
		meta.WriteString("\n" + Dim(p.Description) + "\n")
	}

	combined := lipgloss.JoinHorizontal(lipgloss.Top, meta.String(), "    ", costCard(costs, p.Currency))
	return RenderBox("", combined)
}

// FormatCosts renders the derived figures of a project on their own.
func FormatCosts(costs *contract.CostsView, currency string) string {
	return RenderBox(costs.Code+" costs", costCard(costs, currency))
}

func costCard(c *contract.CostsView, currency string) string {
	rows := [][]string{
		{"Material", Money(c.MaterialCost, currency)},
		{"Labor", Money(c.LaborCost, currency)},
		{"Equipment", Money(c.EquipmentCost, currency)},
		{"Contract", Money(c.ContractValue, currency)},
		{Bold("Total"), Bold(Money(c.TotalCost, currency))},
	}
	var b strings.Builder
	b.WriteString(RenderTable([]string{"COST", "AMOUNT"}, rows))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("PROGRESS"), RenderProgress(c.ProgressPercent, 20)))
	if c.ExpectedTotalCost > 0 {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n", StyleDim.Render("BUDGET  "),
			Money(c.ExpectedTotalCost, currency), formatVariance(c.VariancePercent)))
	}
	return b.String()
}

func formatVariance(pct float64) string {
	return VarianceColor(pct).Render(fmt.Sprintf("%+.1f%%", pct))
}
