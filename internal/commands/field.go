package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/clickup"
)

// NewFieldCommand creates the custom field command group
func NewFieldCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Read and set custom fields",
	}

	cmd.AddCommand(
		newFieldSetCommand(root),
		newFieldListCommand(root),
	)
	return cmd
}

func newFieldSetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <task-id> <field-name> <value>",
		Short: "Set a custom field of a task by field name",
		Long: `Sets a custom field of a task. The field is looked up by name among the
fields of the task's list. A value that parses as JSON is sent as such,
anything else is sent as a string.`,
		Example: `  clickup-sync field set 86a1b2c3 Priority 2
  clickup-sync field set 86a1b2c3 Owner "Ada Lovelace"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				if err := a.api.SetCustomFieldValue(ctx, args[0], args[1], parseValue(args[2])); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Set %s on task %s\n", args[1], args[0])
				return err
			})
		},
	}
}

func newFieldListCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [task-id]",
		Short: "List the custom fields of the configured list, or the values of a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				var (
					fields []clickup.CustomField
					err    error
				)
				if len(args) == 1 {
					fields, err = a.api.GetTaskCustomFields(ctx, args[0])
				} else {
					fields, err = a.api.GetCustomFields(ctx, a.cfg.ClickUp.ListID)
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tVALUE")
				for _, f := range fields {
					value := ""
					if f.Value != nil {
						value = fmt.Sprint(f.Value)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Type, value)
				}
				return tw.Flush()
			})
		},
	}
}

// parseValue keeps numbers, booleans and JSON documents typed.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
