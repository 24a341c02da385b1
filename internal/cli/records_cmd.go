package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/siteledger/internal/cli/formatter"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/spf13/cobra"
)

// recordStep builds a "<verb> <ref>" command that finds a record of the
// --project by reference or id and applies step to it.
func recordStep[T any](
	app *App,
	verb, short string,
	list func(ctx context.Context, projectID string) ([]T, error),
	key func(T) (id, reference string),
	step func(ctx context.Context, projectID, id string) error,
) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   verb + " <ref>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			records, err := list(ctx, p.ID)
			if err != nil {
				return err
			}
			rec, err := findRecord(records, args[0], key)
			if err != nil {
				return err
			}
			id, ref := key(rec)
			if err := step(ctx, p.ID, id); err != nil {
				return err
			}
			if ref == "" {
				ref = id
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", ref, verb)
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// recordList builds a "list" command for the records of --project.
func recordList(app *App, short string, render func(ctx context.Context, p *domain.Project) (string, error)) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			out, err := render(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// --- Daily progress reports ---

func newDPRCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dpr",
		Short: "Record daily progress reports",
	}

	dprKey := func(d *domain.DPR) (string, string) { return d.ID, "" }
	cmd.AddCommand(
		newDPRAddCmd(app),
		recordList(app, "List daily reports", func(ctx context.Context, p *domain.Project) (string, error) {
			dprs, err := app.DPRs.List(ctx, p.ID)
			if err != nil {
				return "", err
			}
			return formatter.FormatDPRList(dprs, p.Currency), nil
		}),
		recordStep(app, "remove", "Delete a daily report",
			func(ctx context.Context, projectID string) ([]*domain.DPR, error) { return app.DPRs.List(ctx, projectID) },
			dprKey,
			func(ctx context.Context, projectID, id string) error { return app.DPRs.Remove(ctx, projectID, id) }),
	)
	return cmd
}

// parseMaterial reads a "product:unit:qty:unit_cost" flag value.
func parseMaterial(s string) (domain.DPRMaterial, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return domain.DPRMaterial{}, fmt.Errorf("material %q: want product:unit:qty:unit_cost", s)
	}
	qty, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return domain.DPRMaterial{}, fmt.Errorf("material %q: invalid quantity", s)
	}
	cost, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return domain.DPRMaterial{}, fmt.Errorf("material %q: invalid unit cost", s)
	}
	return domain.DPRMaterial{Product: parts[0], Unit: parts[1], Quantity: qty, UnitCost: cost}, nil
}

func newDPRAddCmd(app *App) *cobra.Command {
	var projectRef, date, summary, issues string
	var employees int
	var hours, perDay float64
	var materials []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a daily progress report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			d := &domain.DPR{
				ProjectID:     p.ID,
				Summary:       summary,
				Issues:        issues,
				EmployeeCount: employees,
				WorkingHours:  hours,
				PerDayCost:    perDay,
			}
			if d.Date, err = dateOrToday(app, "report", date); err != nil {
				return err
			}
			for _, m := range materials {
				line, err := parseMaterial(m)
				if err != nil {
					return err
				}
				d.Materials = append(d.Materials, line)
			}
			if err := app.DPRs.Add(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added report for %s: labor %s, material %s\n",
				d.Date.Format(dateLayout),
				formatter.Money(d.LaborCost(), p.Currency),
				formatter.Money(d.MaterialCost(), p.Currency))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&date, "date", "", "Report date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&summary, "summary", "", "Work done")
	cmd.Flags().StringVar(&issues, "issues", "", "Issues encountered")
	cmd.Flags().IntVar(&employees, "employees", 0, "Number of workers on site")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Working hours per worker (default 8)")
	cmd.Flags().Float64Var(&perDay, "per-day", 0, "Cost per worker per day")
	cmd.Flags().StringArrayVar(&materials, "material", nil, "Material used, product:unit:qty:unit_cost (repeatable)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// --- Equipment ---

func newEquipmentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Allocate equipment to a project",
	}

	list := func(ctx context.Context, projectID string) ([]*domain.EquipmentAllocation, error) {
		return app.Equipment.List(ctx, projectID)
	}
	key := func(e *domain.EquipmentAllocation) (string, string) { return e.ID, e.Reference }
	cmd.AddCommand(
		newEquipmentAddCmd(app),
		newEquipmentUsageCmd(app),
		recordStep(app, "return", "Return allocated equipment", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Equipment.Return(ctx, projectID, id) }),
		recordStep(app, "cancel", "Cancel an allocation", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Equipment.Cancel(ctx, projectID, id) }),
		recordList(app, "List equipment allocations", func(ctx context.Context, p *domain.Project) (string, error) {
			all, err := list(ctx, p.ID)
			if err != nil {
				return "", err
			}
			return formatter.FormatEquipmentList(all, p.Currency, app.now()), nil
		}),
	)
	return cmd
}

func newEquipmentAddCmd(app *App) *cobra.Command {
	var projectRef, task, ref, category, from, until, notes string
	var rate float64

	cmd := &cobra.Command{
		Use:   "add <equipment>",
		Short: "Allocate a piece of equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			e := &domain.EquipmentAllocation{
				ProjectID:  p.ID,
				Reference:  ref,
				Equipment:  args[0],
				Category:   domain.EquipmentCategory(category),
				HourlyRate: rate,
				Notes:      notes,
			}
			if e.AllocationDate, err = dateOrToday(app, "from", from); err != nil {
				return err
			}
			if e.ReturnDate, err = parseOptionalDate("until", until); err != nil {
				return err
			}
			if task != "" {
				taskID, err := resolveTaskID(ctx, app, p.ID, task)
				if err != nil {
					return err
				}
				e.TaskID = &taskID
			}
			if err := app.Equipment.Allocate(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Allocated %s as %s\n", e.Equipment, e.Reference)
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&task, "task", "", "Task the equipment works on (#seq or id)")
	cmd.Flags().StringVar(&ref, "ref", "", "Reference (default EQ-<code>-nnn)")
	cmd.Flags().StringVar(&category, "category", "", "owned or contractual (default owned)")
	cmd.Flags().StringVar(&from, "from", "", "Allocation date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&until, "until", "", "Planned return date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Hourly rate")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newEquipmentUsageCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "usage <ref> <hours>",
		Short: "Log hours of use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			hours, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid hours %q", args[1])
			}
			all, err := app.Equipment.List(ctx, p.ID)
			if err != nil {
				return err
			}
			e, err := findRecord(all, args[0], func(e *domain.EquipmentAllocation) (string, string) { return e.ID, e.Reference })
			if err != nil {
				return err
			}
			if err := app.Equipment.LogUsage(ctx, p.ID, e.ID, hours); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// --- Purchases ---

func newPurchaseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Track material purchase orders",
	}

	list := func(ctx context.Context, projectID string) ([]*domain.PurchaseOrder, error) {
		return app.Purchases.List(ctx, projectID)
	}
	key := func(po *domain.PurchaseOrder) (string, string) { return po.ID, po.Reference }
	cmd.AddCommand(
		newPurchaseAddCmd(app),
		recordStep(app, "confirm", "Confirm an order so it counts toward material cost", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Purchases.Confirm(ctx, projectID, id) }),
		recordStep(app, "receive", "Mark a confirmed order received", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Purchases.Receive(ctx, projectID, id) }),
		recordStep(app, "cancel", "Cancel an order", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Purchases.Cancel(ctx, projectID, id) }),
		recordList(app, "List purchase orders", func(ctx context.Context, p *domain.Project) (string, error) {
			all, err := list(ctx, p.ID)
			if err != nil {
				return "", err
			}
			return formatter.FormatPurchaseList(all, p.Currency), nil
		}),
	)
	return cmd
}

func newPurchaseAddCmd(app *App) *cobra.Command {
	var projectRef, supplier, item, ref, date string
	var amount float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a draft purchase order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			po := &domain.PurchaseOrder{
				ProjectID:   p.ID,
				Reference:   ref,
				Supplier:    supplier,
				AmountTotal: amount,
			}
			if po.OrderDate, err = dateOrToday(app, "order", date); err != nil {
				return err
			}
			if item != "" {
				itemID, err := resolveBOQItemID(ctx, app, p.ID, item)
				if err != nil {
					return err
				}
				po.BOQItemID = &itemID
			}
			if err := app.Purchases.Add(ctx, po); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added purchase order %s for %s\n", po.Reference, formatter.Money(po.AmountTotal, p.Currency))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&supplier, "supplier", "", "Supplier")
	cmd.Flags().StringVar(&item, "item", "", "BOQ item the order supplies (#seq or id)")
	cmd.Flags().StringVar(&ref, "ref", "", "Reference (default PO-<code>-nnn)")
	cmd.Flags().StringVar(&date, "date", "", "Order date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Order total")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// --- Invoices and payments ---

func newInvoiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Bill the customer",
	}

	list := func(ctx context.Context, projectID string) ([]*domain.Invoice, error) {
		return app.Billing.ListInvoices(ctx, projectID)
	}
	key := func(inv *domain.Invoice) (string, string) { return inv.ID, inv.Reference }
	cmd.AddCommand(
		newInvoiceAddCmd(app),
		recordStep(app, "post", "Post an invoice", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Billing.PostInvoice(ctx, projectID, id) }),
		recordStep(app, "cancel", "Cancel an invoice", list, key,
			func(ctx context.Context, projectID, id string) error { return app.Billing.CancelInvoice(ctx, projectID, id) }),
		recordList(app, "List invoices", func(ctx context.Context, p *domain.Project) (string, error) {
			all, err := list(ctx, p.ID)
			if err != nil {
				return "", err
			}
			return formatter.FormatInvoiceList(all, p.Currency), nil
		}),
	)
	return cmd
}

func newInvoiceAddCmd(app *App) *cobra.Command {
	var projectRef, ref, date string
	var amount float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a draft invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			inv := &domain.Invoice{ProjectID: p.ID, Reference: ref, Amount: amount}
			if inv.InvoiceDate, err = dateOrToday(app, "invoice", date); err != nil {
				return err
			}
			if err := app.Billing.AddInvoice(ctx, inv); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added invoice %s for %s\n", inv.Reference, formatter.Money(inv.Amount, p.Currency))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&ref, "ref", "", "Reference (default INV-<code>-nnn)")
	cmd.Flags().StringVar(&date, "date", "", "Invoice date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Invoice amount")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newPaymentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Record customer payments",
	}

	list := func(ctx context.Context, projectID string) ([]*domain.Payment, error) {
		return app.Billing.ListPayments(ctx, projectID)
	}
	cmd.AddCommand(
		newPaymentAddCmd(app),
		recordStep(app, "post", "Post a payment", list,
			func(pay *domain.Payment) (string, string) { return pay.ID, pay.Reference },
			func(ctx context.Context, projectID, id string) error { return app.Billing.PostPayment(ctx, projectID, id) }),
		recordList(app, "List payments", func(ctx context.Context, p *domain.Project) (string, error) {
			all, err := list(ctx, p.ID)
			if err != nil {
				return "", err
			}
			return formatter.FormatPaymentList(all, p.Currency), nil
		}),
	)
	return cmd
}

func newPaymentAddCmd(app *App) *cobra.Command {
	var projectRef, ref, kind, date string
	var amount float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a draft payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if kind != "" && !domain.ValidPaymentKinds[kind] {
				return fmt.Errorf("invalid payment kind %q (advance, progress, retention, final)", kind)
			}
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			pay := &domain.Payment{ProjectID: p.ID, Reference: ref, Amount: amount, Kind: domain.PaymentKind(kind)}
			if pay.PaymentDate, err = dateOrToday(app, "payment", date); err != nil {
				return err
			}
			if err := app.Billing.AddPayment(ctx, pay); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s payment %s for %s\n", pay.Kind, pay.Reference, formatter.Money(pay.Amount, p.Currency))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&ref, "ref", "", "Reference (default PAY-<code>-nnn)")
	cmd.Flags().StringVar(&kind, "kind", "", "advance, progress, retention or final (default progress)")
	cmd.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Payment amount")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
