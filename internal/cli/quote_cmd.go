package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/siteledger/internal/cli/formatter"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/spf13/cobra"
)

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price quotations and convert them into projects",
	}

	cmd.AddCommand(
		newQuoteNewCmd(app),
		newQuoteLineCmd(app),
		newQuoteStepCmd(app, "send", "Mark a draft quotation sent", app.quoteSend),
		newQuoteStepCmd(app, "approve", "Approve a sent quotation", app.quoteApprove),
		newQuoteStepCmd(app, "reject", "Reject a sent quotation", app.quoteReject),
		newQuoteConvertCmd(app),
		newQuoteShowCmd(app),
		newQuoteListCmd(app),
	)
	return cmd
}

func (a *App) quoteSend(cmd *cobra.Command, ref string) error {
	return a.Quotations.Send(cmd.Context(), ref)
}

func (a *App) quoteApprove(cmd *cobra.Command, ref string) error {
	return a.Quotations.Approve(cmd.Context(), ref)
}

func (a *App) quoteReject(cmd *cobra.Command, ref string) error {
	return a.Quotations.Reject(cmd.Context(), ref)
}

func newQuoteNewCmd(app *App) *cobra.Command {
	var ref, currency, date, validUntil, notes string
	var transport, margin, vat float64

	cmd := &cobra.Command{
		Use:   "new <customer>",
		Short: "Start a draft quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := &domain.Quotation{
				Reference:     ref,
				Customer:      args[0],
				Currency:      strings.ToUpper(currency),
				TransportCost: transport,
				MarginPercent: margin,
				VATPercent:    vat,
				Notes:         notes,
			}
			if date != "" {
				d, err := parseDate("quotation", date)
				if err != nil {
					return err
				}
				q.Date = d
			}
			var err error
			if q.ValidUntil, err = parseOptionalDate("valid-until", validUntil); err != nil {
				return err
			}
			if err := app.Quotations.Create(cmd.Context(), q); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created quotation %s for %s\n", q.Reference, q.Customer)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Reference (default QUO-nnnn)")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code (default USD)")
	cmd.Flags().StringVar(&date, "date", "", "Quotation date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&validUntil, "valid-until", "", "Expiry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().Float64Var(&transport, "transport", 0, "Transport cost")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Margin percent (default 15)")
	cmd.Flags().Float64Var(&vat, "vat", 0, "VAT percent (default 18)")
	return cmd
}

func newQuoteLineCmd(app *App) *cobra.Command {
	var line domain.QuotationLine
	var workType string

	cmd := &cobra.Command{
		Use:   "line <quotation>",
		Short: "Add a priced line of work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidWorkTypes[workType] {
				return fmt.Errorf("invalid work type %q", workType)
			}
			line.WorkType = domain.WorkType(workType)
			q, err := app.Quotations.AddLine(cmd.Context(), args[0], line)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatQuotation(q))
			return nil
		},
	}

	cmd.Flags().StringVar(&workType, "work", string(domain.WorkOther), "Work type (painting, tiling, partition, ceiling_plaster, ...)")
	cmd.Flags().StringVar(&line.Description, "description", "", "Description")
	cmd.Flags().StringVar(&line.Unit, "unit", "", "Unit (defaults by work type)")
	cmd.Flags().Float64Var(&line.SurfaceArea, "area", 0, "Surface area")
	cmd.Flags().Float64Var(&line.Quantity, "qty", 0, "Quantity (defaults to the area)")
	cmd.Flags().Float64Var(&line.WastePercent, "waste", 0, "Waste percent (defaults by work type)")
	cmd.Flags().Float64Var(&line.MaterialUnitCost, "material-cost", 0, "Material cost per unit")
	cmd.Flags().Float64Var(&line.LaborDays, "labor-days", 0, "Labor days (defaults by work type)")
	cmd.Flags().Float64Var(&line.LaborRatePerDay, "labor-rate", 0, "Labor rate per day")
	cmd.Flags().Float64Var(&line.EquipmentCost, "equipment", 0, "Equipment cost")
	return cmd
}

func newQuoteStepCmd(app *App, verb, short string, step func(cmd *cobra.Command, ref string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <quotation>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := step(cmd, args[0]); err != nil {
				return err
			}
			q, err := app.Quotations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", q.Reference, q.State)
			return nil
		},
	}
}

func newQuoteConvertCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <quotation> <project-code>",
		Short: "Turn an approved quotation into a draft project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Quotations.Convert(cmd.Context(), args[0], strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s [%s] with contract value %s\n",
				p.Name, p.Code, formatter.Money(p.ContractValue, p.Currency))
			return nil
		},
	}
}

func newQuoteShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quotation>",
		Short: "Show a quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := app.Quotations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatQuotation(q))
			return nil
		},
	}
}

func newQuoteListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List quotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := app.Quotations.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatQuotationList(all))
			return nil
		},
	}
}
