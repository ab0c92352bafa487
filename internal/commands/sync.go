package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xtraqtiv/clickup-sync/hierarchy"
	"github.com/xtraqtiv/clickup-sync/logger"
	"github.com/xtraqtiv/clickup-sync/tasks"
)

// DefaultSaveFile is written by a bare --save.
const DefaultSaveFile = "task_structure.json"

// SyncOptions holds options for the sync command
type SyncOptions struct {
	Load        string
	Save        string
	Preview     bool
	Concurrency int
}

// NewSyncCommand creates the sync command
func NewSyncCommand(root *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create the task hierarchy in ClickUp",
		Long: `Creates every task of the hierarchy in the configured list. Nested
entries become subtasks of the task created for their parent.

A task that fails is reported and its subtasks are skipped; the rest of the
hierarchy is still created. Only setup errors make the command fail.`,
		Example: `  # Create the built-in hierarchy
  clickup-sync sync

  # Preview a saved structure without calling ClickUp
  clickup-sync sync --load task_structure.json --preview

  # Save the built-in structure to task_structure.json, then create it
  clickup-sync sync --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Load, "load", "", "Load the task structure from a JSON or YAML file")
	cmd.Flags().StringVar(&opts.Save, "save", "", "Save the task structure to a file (use --save=path to choose it)")
	cmd.Flags().Lookup("save").NoOptDefVal = DefaultSaveFile
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "Preview tasks without creating them")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Root hierarchies created at once (default from sync.concurrency)")

	return cmd
}

func runSync(cmd *cobra.Command, root *RootOptions, opts *SyncOptions) error {
	if opts.Preview {
		log := logger.NewWithWriter(cmd.ErrOrStderr(), "info", false)
		nodes, err := prepareNodes(log, opts.Load, opts.Save)
		if err != nil {
			return err
		}
		return writePreview(cmd.OutOrStdout(), nodes, true)
	}

	return withApp(cmd, root, func(ctx context.Context, a *app) error {
		path := opts.Load
		if path == "" {
			path = a.cfg.Sync.TasksFile
		}
		nodes, err := prepareNodes(a.log, path, opts.Save)
		if err != nil {
			return err
		}

		concurrency := opts.Concurrency
		if concurrency <= 0 {
			concurrency = a.cfg.Sync.Concurrency
		}

		a.log.Info().
			Str("list_id", a.cfg.ClickUp.ListID).
			Int("tasks", tasks.Count(nodes)).
			Msg("Creating tasks in ClickUp")

		creator := hierarchy.NewCreator(a.api, a.log, hierarchy.WithConcurrency(concurrency))
		report := creator.Create(ctx, a.cfg.ClickUp.ListID, nodes)
		return report.WriteSummary(cmd.OutOrStdout())
	})
}

// prepareNodes loads the structure from path, or the built-in one, and saves
// a copy when save is set.
func prepareNodes(log logger.Logger, path, save string) ([]tasks.Node, error) {
	var (
		nodes []tasks.Node
		err   error
	)
	if path != "" {
		log.Info().Str("file", path).Msg("Loading task structure")
		nodes, err = tasks.Load(path)
	} else {
		nodes, err = tasks.Default()
	}
	if err != nil {
		return nil, err
	}

	if save != "" {
		log.Info().Str("file", save).Msg("Saving task structure")
		if err := tasks.Save(save, nodes); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func writePreview(w io.Writer, nodes []tasks.Node, hint bool) error {
	if _, err := fmt.Fprint(w, "\nTask Structure Preview:\n=====================\n\n"); err != nil {
		return err
	}
	if err := tasks.Preview(w, nodes); err != nil {
		return err
	}
	if hint {
		_, err := fmt.Fprintln(w, "\nTo create these tasks in ClickUp, run sync without --preview")
		return err
	}
	return nil
}
