// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/oneconcern/catsync/pkg/metafile"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

type historyEntry struct {
	Hash            string    `json:"hash"`
	IsBase          bool      `json:"is_base"`
	ModificationUTC time.Time `json:"modification_utc"`
	Filename        string    `json:"filename"`
	Size            int64     `json:"size"`
}

func newHistoryEntry(info metafile.ChangesetInfo) historyEntry {
	entry := historyEntry{
		Hash:            info.Hash,
		IsBase:          info.IsBase,
		ModificationUTC: info.ModificationUTC,
		Filename:        info.Filename,
		Size:            -1,
	}
	if fi, err := os.Stat(info.Filename); err == nil {
		entry.Size = fi.Size()
	}
	return entry
}

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Display the shared history",
	Long:  `Displays the changesets published in the shared directory, from the base to the most recent one`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEngine(&catsyncFlags)
		if err != nil {
			wrapFatalln("log", err)
			return
		}
		ctx, cancel := commandContext()
		defer cancel()

		history, err := e.History(ctx)
		if err != nil {
			wrapFatalln("failed to read shared history", err)
			return
		}
		entries := make([]historyEntry, 0, len(history))
		for _, info := range history {
			entries = append(entries, newHistoryEntry(info))
		}

		if catsyncFlags.log.json {
			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(entries, "", "  ")
			if err != nil {
				wrapFatalln("failed to serialize history", err)
				return
			}
			infoLogger.Println(string(out))
			return
		}

		// most recent first
		for i := len(entries) - 1; i >= 0; i-- {
			c := entries[i]
			fmt.Print("changeset: ")
			color.Set(color.FgMagenta)
			fmt.Print(c.Hash)
			color.Unset()
			if c.IsBase {
				color.Set(color.FgGreen)
				fmt.Print(" (base)")
				color.Unset()
			}
			fmt.Println()
			fmt.Print("     Date: ")
			color.Set(color.FgYellow)
			fmt.Println(c.ModificationUTC.Format(time.RFC3339))
			color.Unset()
			fmt.Print("     Size: ")
			if c.Size < 0 {
				color.Set(color.FgRed)
				fmt.Println("missing")
				color.Unset()
			} else {
				fmt.Println(units.HumanSize(float64(c.Size)))
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	addJSONFlag(logCmd)
}
