package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/clickup"
)

// NewTaskCommand creates the task command group
func NewTaskCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Read and update tasks",
	}

	cmd.AddCommand(
		newTaskGetCommand(root),
		newTaskStatusCommand(root),
		newTaskListCommand(root),
	)
	return cmd
}

func newTaskGetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Print a task as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				task, err := a.api.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), task)
			})
		},
	}
}

func newTaskStatusCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				task, err := a.api.UpdateTaskStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", task.ID, task.Status.Status)
				return err
			})
		},
	}
}

func newTaskListCommand(root *RootOptions) *cobra.Command {
	var q clickup.TaskQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of the configured list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				page, err := a.api.GetTasks(ctx, a.cfg.ClickUp.ListID, q)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tPARENT\tNAME")
				for _, t := range page.Tasks {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Status.Status, t.Parent, t.Name)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&q.Page, "page", 0, "Page to fetch, starting at 0")
	cmd.Flags().BoolVar(&q.IncludeClosed, "include-closed", false, "Include closed tasks")
	cmd.Flags().BoolVar(&q.Archived, "archived", false, "List archived tasks")
	cmd.Flags().StringSliceVar(&q.Statuses, "status", nil, "Only tasks in these statuses")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
