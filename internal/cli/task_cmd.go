package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/siteledger/internal/cli/formatter"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task tree",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskProgressCmd(app),
		newTaskStatusCmd(app),
		newTaskMoveCmd(app),
		newTaskDetachCmd(app),
		newTaskRemoveCmd(app),
		newTaskTreeCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var projectRef, parent, assignee, description, start, end string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task, optionally under a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			t := &domain.Task{
				ProjectID:   p.ID,
				Name:        args[0],
				AssignedTo:  assignee,
				Description: description,
			}
			if t.StartDate, err = parseOptionalDate("start", start); err != nil {
				return err
			}
			if t.EndDate, err = parseOptionalDate("end", end); err != nil {
				return err
			}
			if parent != "" {
				parentID, err := resolveTaskID(ctx, app, p.ID, parent)
				if err != nil {
					return err
				}
				t.ParentID = &parentID
			}
			if err := app.Tasks.Add(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task #%d %s\n", t.Seq, t.Name)
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task (#seq or id)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Person responsible")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newTaskProgressCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "progress <task> <percent>",
		Short: "Set the progress of a leaf task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
			if err != nil {
				return fmt.Errorf("invalid percentage %q", args[1])
			}
			if err := app.Tasks.SetProgress(ctx, p.ID, id, pct); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskStatusCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "status <task> <not_started|in_progress|completed>",
		Short: "Set a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !domain.ValidTaskStatuses[args[1]] {
				return fmt.Errorf("invalid task status %q", args[1])
			}
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.SetStatus(ctx, p.ID, id, domain.TaskStatus(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", args[0], args[1])
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskMoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "move <task> <parent>",
		Short: "Attach a task under a new parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			parentID, err := resolveTaskID(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.Tasks.Move(ctx, p.ID, id, parentID); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskDetachCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "detach <task>",
		Short: "Make a task a root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.Move(ctx, p.ID, id, ""); err != nil {
				return err
			}
			return printCosts(cmd, app, p)
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "remove <task>",
		Short: "Remove a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			removed, err := app.Tasks.Remove(ctx, p.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d task(s)\n", len(removed))
			return nil
		},
	}

	projectFlag(cmd.Flags(), &projectRef)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <project>",
		Short: "Show the task tree with rolled-up progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.List(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskTree(tasks))
			return nil
		},
	}
}
