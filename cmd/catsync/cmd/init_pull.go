package cmd

import (
	"context"

	"github.com/oneconcern/catsync/pkg/engine"

	"github.com/spf13/cobra"
)

var initPullCmd = &cobra.Command{
	Use:   "init-pull",
	Short: "Create the local catalog from the shared history",
	Long: `Downloads the base catalog from the shared directory and applies every published changeset.

The shared catalog must exist, and neither the local catalog nor its metadata may exist yet.
`,
	Example: `% catsync init-pull --local-catalog ~/Pictures/main.lrcat --cloud-catalog ~/Dropbox/lightroom/main.lrcat`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runEngine("init-pull", func(ctx context.Context, e *engine.Engine) error {
			return e.InitPull(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(initPullCmd)
}
