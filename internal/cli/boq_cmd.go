package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/siteledger/internal/cli/formatter"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/spf13/cobra"
)

func newBOQCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boq",
		Short: "Manage the bill of quantities",
	}

	cmd.AddCommand(
		newBOQAddCmd(app),
		newBOQSetCmd(app),
		newBOQMoveCmd(app),
		newBOQDetachCmd(app),
		newBOQRemoveCmd(app),
		newBOQTreeCmd(app),
	)

	return cmd
}

func newBOQAddCmd(app *App) *cobra.Command {
	var projectRef, parent, code, unit string
	var quantity, unitPrice, laborHours, laborCost float64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a BOQ item, optionally under a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			item := &domain.BOQItem{
				ProjectID:  p.ID,
				Code:       code,
				Name:       args[0],
				Unit:       unit,
				Quantity:   quantity,
				UnitPrice:  unitPrice,
				LaborHours: laborHours,
				LaborCost:  laborCost,
			}
			if parent != "" {
				parentID, err := resolveBOQItemID(ctx, app, p.ID, parent)
				if err != nil {
					return err
				}
				item.ParentID = &parentID
			}
			if err := app.BOQ.Add(ctx, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added BOQ item #%d %s\n", item.Seq, item.Name)
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&parent, "parent", "", "Parent item (#seq or id)")
	cmd.Flags().StringVar(&code, "code", "", "Item code, e.g. 2.1")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit of measure")
	cmd.Flags().Float64Var(&quantity, "qty", 0, "Quantity")
	cmd.Flags().Float64Var(&unitPrice, "price", 0, "Unit price")
	cmd.Flags().Float64Var(&laborHours, "labor-hours", 0, "Estimated labor hours")
	cmd.Flags().Float64Var(&laborCost, "labor-cost", 0, "Estimated labor cost")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newBOQSetCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "set <item> <qty> <price>",
		Short: "Set the quantity and unit price of a BOQ line",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveBOQItemID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", args[2])
			}
			if err := app.BOQ.SetLine(ctx, p.ID, id, qty, price); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newBOQMoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "move <item> <parent>",
		Short: "Attach a BOQ item under a new parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveBOQItemID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			parentID, err := resolveBOQItemID(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.BOQ.Move(ctx, p.ID, id, parentID); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newBOQDetachCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "detach <item>",
		Short: "Make a BOQ item a root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveBOQItemID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.BOQ.Move(ctx, p.ID, id, ""); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newBOQRemoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "remove <item>",
		Short: "Remove a BOQ item and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveBOQItemID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			removed, err := app.BOQ.Remove(ctx, p.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d BOQ item(s)\n", len(removed))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newBOQTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <project>",
		Short: "Show the bill of quantities as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			items, err := app.BOQ.List(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBOQTree(items, p.Currency))
			return nil
		},
	}
}
