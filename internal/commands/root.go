// Package commands implements the clickup-sync command line.
package commands

import (
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every subcommand
type RootOptions struct {
	ConfigFile string
	EnvFile    string

	version string
}

// NewRootCommand creates the clickup-sync command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{version: version}

	cmd := &cobra.Command{
		Use:   "clickup-sync",
		Short: "Create and manage the XTRAQTIV task hierarchy in ClickUp",
		Long: `Creates a task hierarchy in a ClickUp list and manages the tasks,
custom fields and webhooks around it.

Credentials come from CLICKUP_API_TOKEN, CLICKUP_WORKSPACE_ID, CLICKUP_SPACE_ID
and CLICKUP_LIST_ID, read from the environment, a .env file or config.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file (default config.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default .env if present)")

	cmd.AddCommand(
		NewSyncCommand(opts),
		NewPreviewCommand(),
		NewTaskCommand(opts),
		NewFieldCommand(opts),
		NewWebhookCommand(opts),
		NewVersionCommand(version),
	)

	return cmd
}
