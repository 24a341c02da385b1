package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/siteledger/internal/cli/formatter"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// projectFlag registers the --project/-p flag shared by record commands.
func projectFlag(fs *pflag.FlagSet, value *string) {
	fs.StringVarP(value, "project", "p", "", "Project code or id")
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectTransitionCmd(app, "activate", "Start a draft project",
			func(ctx context.Context, id string) error { return app.Projects.Activate(ctx, id) }),
		newProjectTransitionCmd(app, "complete", "Mark an active project completed",
			func(ctx context.Context, id string) error { return app.Projects.Complete(ctx, id) }),
		newProjectTransitionCmd(app, "cancel", "Cancel a draft or active project",
			func(ctx context.Context, id string) error { return app.Projects.Cancel(ctx, id) }),
		newProjectTransitionCmd(app, "archive", "Archive a project, locking it against edits",
			func(ctx context.Context, id string) error { return app.Projects.Archive(ctx, id) }),
		newProjectRemoveCmd(app),
		newProjectContractCmd(app),
		newProjectExpectedCmd(app),
		newProjectBillCmd(app),
		newProjectRecomputeCmd(app),
	)

	return cmd
}

type projectInput struct {
	code, name, customer, currency, description string
	start, end, expectedEnd                     string
	contract                                    string
}

func newProjectAddCmd(app *App) *cobra.Command {
	var in projectInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new draft project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.code == "" || in.name == "" {
				if !app.interactive() {
					return fmt.Errorf("--code and --name are required")
				}
				if err := projectForm(&in).Run(); err != nil {
					return err
				}
			}

			p := &domain.Project{
				Code:        strings.ToUpper(strings.TrimSpace(in.code)),
				Name:        strings.TrimSpace(in.name),
				Customer:    in.customer,
				Currency:    strings.ToUpper(in.currency),
				Description: in.description,
			}
			var err error
			if p.StartDate, err = parseOptionalDate("start", in.start); err != nil {
				return err
			}
			if p.EndDate, err = parseOptionalDate("end", in.end); err != nil {
				return err
			}
			if p.ExpectedEnd, err = parseOptionalDate("due", in.expectedEnd); err != nil {
				return err
			}
			if in.contract != "" {
				if p.ContractValue, err = strconv.ParseFloat(in.contract, 64); err != nil {
					return fmt.Errorf("invalid contract value %q", in.contract)
				}
			}

			if err := app.Projects.Create(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s [%s]\n", p.Name, p.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.code, "code", "", "Project code (3-6 uppercase letters + 2-4 digits, e.g. VILLA01)")
	cmd.Flags().StringVar(&in.name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&in.currency, "currency", "", "Currency code (default USD)")
	cmd.Flags().StringVar(&in.description, "description", "", "Description")
	cmd.Flags().StringVar(&in.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.expectedEnd, "due", "", "Expected end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.contract, "contract", "", "Contract value")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived projects")
	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project with its costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			costs, err := app.Projects.Costs(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProject(p, costs))
			return nil
		},
	}
}

func newProjectTransitionCmd(app *App, verb, short string, fn func(ctx context.Context, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <project>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := fn(ctx, p.ID); err != nil {
				return err
			}
			updated, err := app.Projects.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Code, updated.Status)
			return nil
		},
	}
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete an archived project and all its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Delete(ctx, p.ID, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", p.Code)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even if the project is not archived")
	return cmd
}

func newProjectContractCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contract <project> <value>",
		Short: "Set the contract value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid contract value %q", args[1])
			}
			if err := app.Projects.SetContractValue(ctx, p.ID, value); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}
}

func newProjectExpectedCmd(app *App) *cobra.Command {
	var material, labor, equipment, contractValue float64

	cmd := &cobra.Command{
		Use:   "expected <project>",
		Short: "Set the budgeted costs the variance is measured against",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			// Unset flags keep their stored value.
			expected := p.Expected
			flags := cmd.Flags()
			if flags.Changed("material") {
				expected.Material = material
			}
			if flags.Changed("labor") {
				expected.Labor = labor
			}
			if flags.Changed("equipment") {
				expected.Equipment = equipment
			}
			if flags.Changed("contract") {
				expected.ContractValue = contractValue
			}
			if err := app.Projects.SetExpected(ctx, p.ID, expected); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	cmd.Flags().Float64Var(&material, "material", 0, "Expected material cost")
	cmd.Flags().Float64Var(&labor, "labor", 0, "Expected labor cost")
	cmd.Flags().Float64Var(&equipment, "equipment", 0, "Expected equipment cost")
	cmd.Flags().Float64Var(&contractValue, "contract", 0, "Expected contract cost")
	return cmd
}

func newProjectBillCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bill <project> <percent>",
		Short: "Create a progress invoice for a percentage of the contract value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
			if err != nil {
				return fmt.Errorf("invalid percentage %q", args[1])
			}
			inv, err := app.Projects.Bill(ctx, p.ID, pct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft invoice %s for %s\n",
				inv.Reference, formatter.Money(inv.Amount, p.Currency))
			return nil
		},
	}
}

func newProjectRecomputeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <project>",
		Short: "Rebuild every derived figure from the project's records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			costs, err := app.Projects.Recompute(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCosts(costs, p.Currency))
			return nil
		},
	}
}

// printCosts writes the project's current cost card.
func printCosts(cmd *cobra.Command, app *App, p *domain.Project) error {
	costs, err := app.Projects.Costs(cmd.Context(), p.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCosts(costs, p.Currency))
	return nil
}
