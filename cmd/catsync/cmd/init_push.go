package cmd

import (
	"context"

	"github.com/oneconcern/catsync/pkg/engine"

	"github.com/spf13/cobra"
)

var initPushCmd = &cobra.Command{
	Use:   "init-push",
	Short: "Publish the local catalog as the base of a new shared history",
	Long: `Copies the local catalog to the shared directory, where it becomes the base changeset
every other machine starts from.

The local catalog must exist, and neither the shared catalog nor any metadata may exist yet.
`,
	Example: `% catsync init-push --local-catalog ~/Pictures/main.lrcat --cloud-catalog ~/Dropbox/lightroom/main.lrcat`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runEngine("init-push", func(ctx context.Context, e *engine.Engine) error {
			return e.InitPush(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(initPushCmd)
}
