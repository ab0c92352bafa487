package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/clickup"
)

// NewWebhookCommand creates the webhook command group. Webhooks belong to the
// configured workspace.
func NewWebhookCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage workspace webhooks",
	}

	cmd.AddCommand(
		newWebhookListCommand(root),
		newWebhookCreateCommand(root),
		newWebhookDeleteCommand(root),
		newWebhookStatusCommand(root),
	)
	return cmd
}

func newWebhookListCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				hooks, err := a.api.GetWebhooks(ctx, a.cfg.ClickUp.WorkspaceID)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tFAILS\tENDPOINT\tEVENTS")
				for _, h := range hooks {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
						h.ID, h.Health.Status, h.Health.FailCount, h.Endpoint, strings.Join(h.Events, ","))
				}
				return tw.Flush()
			})
		},
	}
}

func newWebhookCreateCommand(root *RootOptions) *cobra.Command {
	var (
		events []string
		status string
	)

	cmd := &cobra.Command{
		Use:   "create <endpoint>",
		Short: "Create a webhook",
		Example: `  clickup-sync webhook create https://example.com/hooks/clickup
  clickup-sync webhook create https://example.com/hooks/clickup --events taskCreated,taskDeleted`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				hook, err := a.api.CreateWebhook(ctx, a.cfg.ClickUp.WorkspaceID, args[0], events, status)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created webhook %s\n", hook.ID)
				if hook.Secret != "" {
					fmt.Fprintf(out, "Secret: %s\n", hook.Secret)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&events, "events", nil,
		"Events to subscribe to (default "+strings.Join(clickup.DefaultWebhookEvents, ",")+")")
	cmd.Flags().StringVar(&status, "status", clickup.WebhookActive, "Initial status: active or inactive")
	return cmd
}

func newWebhookDeleteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <webhook-id>",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				if err := a.api.DeleteWebhook(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted webhook %s\n", args[0])
				return err
			})
		},
	}
}

func newWebhookStatusCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <webhook-id> <active|inactive>",
		Short: "Activate or deactivate a webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				hook, err := a.api.UpdateWebhookStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", hook.ID, args[1])
				return err
			})
		},
	}
}
