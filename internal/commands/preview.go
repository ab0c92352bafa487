package commands

import (
	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/logger"
)

// NewPreviewCommand creates the preview command. It needs no credentials.
func NewPreviewCommand() *cobra.Command {
	var load string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the task hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewWithWriter(cmd.ErrOrStderr(), "info", false)
			nodes, err := prepareNodes(log, load, "")
			if err != nil {
				return err
			}
			return writePreview(cmd.OutOrStdout(), nodes, false)
		},
	}

	cmd.Flags().StringVar(&load, "load", "", "Load the task structure from a JSON or YAML file")
	return cmd
}
