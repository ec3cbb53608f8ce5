package cmd

import (
	"context"

	"github.com/oneconcern/catsync/pkg/engine"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new changesets, edit the catalog, then publish the edit",
	Long: `Runs a full cycle on a catalog initialized with init-push or init-pull:
  1. download and apply the changesets published since the last sync
  2. start the editor (--editor-exec) on the local catalog, and wait for it to exit
  3. publish the difference between the catalog before and after editing as a new changeset

The previous state of the local catalog is kept next to it, with a .backup extension.

When the editor leaves the catalog unchanged, no changeset is published: the local catalog
is simply recorded as synchronized with the most recent changeset.

Only the local catalog is locked. Do not edit the same catalog on two machines at the same
time: both machines would publish a changeset after the same parent, and every later run
fails until one of the two changesets is removed from the shared directory by hand.
`,
	Example: `% catsync sync --editor-exec /usr/local/bin/lightroom`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runEngine("sync", func(ctx context.Context, e *engine.Engine) error {
			return e.Sync(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
