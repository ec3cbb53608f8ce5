package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how far the local catalog is behind the shared history",
	Long: `Shows the changeset the local catalog was last synchronized with, the changesets published
since then, and whether the local catalog was modified outside of a sync.

Nothing is modified.
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEngine(&catsyncFlags)
		if err != nil {
			wrapFatalln("status", err)
			return
		}
		ctx, cancel := commandContext()
		defer cancel()

		report, err := e.Status(ctx)
		if err != nil {
			wrapFatalln("failed to get status", err)
			return
		}

		size := "unknown"
		if fi, err := os.Stat(e.Paths().Local); err == nil {
			size = units.HumanSize(float64(fi.Size()))
		}

		table := uitable.New()
		table.MaxColWidth = 100
		table.AddRow("local catalog:", e.Paths().Local)
		table.AddRow("size:", size)
		table.AddRow("last sync:", report.Checkpoint.LastPush.Hash)
		table.AddRow("synced at:", report.Checkpoint.LastPush.ModificationUTC.Format(time.RFC3339))
		table.AddRow("shared tip:", report.Leaf.Hash)
		table.AddRow("behind by:", strconv.Itoa(len(report.Pending))+" changeset(s)")
		table.AddRow("modified:", strconv.FormatBool(report.Modified))
		infoLogger.Println(table)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
