package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Amount renders v with two decimals and thousands separators, e.g.
// 1234567.5 as "1,234,567.50".
func Amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%g", v)
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg && out != "0.00" {
		out = "-" + out
	}
	return out
}

// Money prefixes Amount with a currency code when one is given.
func Money(v float64, currency string) string {
	if currency == "" {
		return Amount(v)
	}
	return currency + " " + Amount(v)
}

// Date renders a date as YYYY-MM-DD, or a dim placeholder when unset.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Dim("--")
	}
	return t.Format("2006-01-02")
}

// StatusPill returns a colored status indicator for a project status.
func StatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectDraft:
		return StyleBlue.Render("○ Draft")
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.ProjectCancelled:
		return StyleRed.Render("✖ Cancelled")
	case domain.ProjectArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// StatePill renders a record lifecycle state. Terminal states are dimmed.
func StatePill(state string) string {
	switch state {
	case "draft":
		return StyleBlue.Render("○ " + state)
	case "cancel", "cancelled", "rejected":
		return StyleRed.Render("✖ " + state)
	case "done", "returned", "converted", "posted":
		return StyleDim.Render("✔ " + state)
	default:
		return StyleGreen.Render("● " + state)
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}
