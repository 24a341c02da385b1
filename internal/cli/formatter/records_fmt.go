package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/quote"
)

func parentOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FormatBOQTree renders the bill of quantities with each item's total.
func FormatBOQTree(items []*domain.BOQItem, currency string) string {
	if len(items) == 0 {
		return Dim("No BOQ items.") + "\n"
	}
	nodes := make([]TreeNode, 0, len(items))
	for _, b := range items {
		title := b.Name
		if b.Code != "" {
			title = StyleBold.Render(b.Code) + " " + title
		}
		detail := Money(b.TotalPrice, currency)
		if b.Quantity != 0 || b.UnitPrice != 0 {
			detail = fmt.Sprintf("%g %s × %s = %s", b.Quantity, b.Unit, Amount(b.UnitPrice), detail)
		}
		nodes = append(nodes, TreeNode{
			ID:       b.ID,
			ParentID: parentOf(b.ParentID),
			Item:     TreeItem{Title: title, Seq: b.Seq, Detail: detail},
		})
	}
	return RenderTree(FlattenTree(nodes))
}

// FormatTaskTree renders the task tree with each task's rolled-up progress.
func FormatTaskTree(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return Dim("No tasks.") + "\n"
	}
	nodes := make([]TreeNode, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, TreeNode{
			ID:       t.ID,
			ParentID: parentOf(t.ParentID),
			Item: TreeItem{
				Title:  t.Name,
				Seq:    t.Seq,
				Status: string(t.Status),
				Detail: fmt.Sprintf("%.1f%%", t.ProgressPercent),
			},
		})
	}
	return RenderTree(FlattenTree(nodes))
}

func FormatDPRList(dprs []*domain.DPR, currency string) string {
	if len(dprs) == 0 {
		return Dim("No daily reports.") + "\n"
	}
	rows := make([][]string, 0, len(dprs))
	for _, d := range dprs {
		rows = append(rows, []string{
			TruncID(d.ID),
			d.Date.Format("2006-01-02"),
			fmt.Sprintf("%d × %gh", d.EmployeeCount, d.WorkingHours),
			Money(d.LaborCost(), currency),
			Money(d.MaterialCost(), currency),
			truncate(d.Summary, 40),
		})
	}
	return RenderTable([]string{"ID", "DATE", "CREW", "LABOR", "MATERIAL", "SUMMARY"}, rows)
}

func FormatEquipmentList(list []*domain.EquipmentAllocation, currency string, today time.Time) string {
	if len(list) == 0 {
		return Dim("No equipment allocations.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{
			e.Reference,
			e.Equipment,
			StatePill(string(e.State)),
			e.AllocationDate.Format("2006-01-02"),
			fmt.Sprintf("%d", e.TotalDays(today)),
			fmt.Sprintf("%g", e.TotalHours),
			Money(e.TotalCost(today), currency),
		})
	}
	return RenderTable([]string{"REF", "EQUIPMENT", "STATE", "FROM", "DAYS", "HOURS", "COST"}, rows)
}

func FormatPurchaseList(list []*domain.PurchaseOrder, currency string) string {
	if len(list) == 0 {
		return Dim("No purchase orders.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.Reference,
			p.Supplier,
			StatePill(string(p.State)),
			p.OrderDate.Format("2006-01-02"),
			Money(p.AmountTotal, currency),
		})
	}
	return RenderTable([]string{"REF", "SUPPLIER", "STATE", "DATE", "AMOUNT"}, rows)
}

func FormatInvoiceList(list []*domain.Invoice, currency string) string {
	if len(list) == 0 {
		return Dim("No invoices.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, inv := range list {
		billing := Dim("--")
		if inv.ProgressBilling {
			billing = fmt.Sprintf("%g%%", inv.BillingPercentage)
		}
		rows = append(rows, []string{
			inv.Reference,
			StatePill(string(inv.State)),
			inv.InvoiceDate.Format("2006-01-02"),
			billing,
			Money(inv.Amount, currency),
		})
	}
	return RenderTable([]string{"REF", "STATE", "DATE", "BILLED", "AMOUNT"}, rows)
}

func FormatPaymentList(list []*domain.Payment, currency string) string {
	if len(list) == 0 {
		return Dim("No payments.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.Reference,
			string(p.Kind),
			StatePill(string(p.State)),
			p.PaymentDate.Format("2006-01-02"),
			Money(p.Amount, currency),
		})
	}
	return RenderTable([]string{"REF", "KIND", "STATE", "DATE", "AMOUNT"}, rows)
}

func FormatQuotationList(list []*domain.Quotation) string {
	if len(list) == 0 {
		return Dim("No quotations.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, q := range list {
		rows = append(rows, []string{
			q.Reference,
			q.Customer,
			StatePill(string(q.State)),
			q.Date.Format("2006-01-02"),
			Money(q.TotalAmount, q.Currency),
		})
	}
	return RenderTable([]string{"REF", "CUSTOMER", "STATE", "DATE", "TOTAL"}, rows)
}

// FormatQuotation renders a quotation with its lines and pricing summary.
func FormatQuotation(q *domain.Quotation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", Bold(q.Reference), StatePill(string(q.State)), StylePurple.Render(q.Customer)))
	b.WriteString(Dim("dated "+q.Date.Format("2006-01-02")) + "\n\n")

	if len(q.Lines) > 0 {
		rows := make([][]string, 0, len(q.Lines))
		for _, l := range q.Lines {
			desc := l.Description
			if desc == "" {
				desc = string(l.WorkType)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", l.Sequence),
				desc,
				fmt.Sprintf("%g %s", quote.BaseQuantity(&l), l.Unit),
				Amount(l.MaterialCost),
				Amount(l.LaborCost),
				Amount(l.EquipmentCost),
				Amount(l.LineTotal),
			})
		}
		b.WriteString(RenderTable([]string{"#", "WORK", "QTY", "MATERIAL", "LABOR", "EQUIPMENT", "TOTAL"}, rows))
		b.WriteString("\n")
	}

	summary := [][]string{
		{"Subtotal", Money(q.Subtotal, q.Currency)},
		{fmt.Sprintf("Margin %g%%", q.MarginPercent), Money(q.MarginAmount, q.Currency)},
		{fmt.Sprintf("VAT %g%%", q.VATPercent), Money(q.VATAmount, q.Currency)},
		{Bold("Total"), Bold(Money(q.TotalAmount, q.Currency))},
	}
	if q.TransportCost > 0 {
		summary = append([][]string{{"Transport", Money(q.TransportCost, q.Currency)}}, summary...)
	}
	b.WriteString(RenderTable([]string{"", "AMOUNT"}, summary))
	return RenderBox("Quotation", b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
