// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/oneconcern/catsync/internal"
	"github.com/oneconcern/catsync/pkg/dlogger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catsync",
	Short: "catsync shares a catalog through a synced directory",
	Long: `catsync shares a single-writer binary catalog (e.g. a Lightroom catalog) between machines,
through a directory replicated by a file hosting service.

The shared directory holds the base catalog and a linear history of binary deltas. Each run
downloads the deltas published since the last run, starts the editor on the local catalog,
then publishes the edit as a new delta.

Settings given as flags are saved in the configuration file, so that later runs need none.

When called without a command, catsync runs "sync".
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		level := catsyncFlags.root.logLevel
		if catsyncFlags.root.verbose {
			level = dlogger.LogLevelInfo
		}
		logger, err = dlogger.GetLogger(level)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		if catsyncFlags.root.logFile != "" {
			logger, closeLog, err = dlogger.WithFile(logger, catsyncFlags.root.logFile, dlogger.LogLevelInfo)
			if err != nil {
				wrapFatalln("failed to open log file", err)
				return
			}
		}
		logger, _ = dlogger.WithRun(logger)

		if catsyncFlags.root.cpuProf != "" {
			stopProf, err = internal.CPUProfile(catsyncFlags.root.cpuProf, logger)
			if err != nil {
				wrapFatalln("failed to start cpu profile", err)
				return
			}
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopProf != nil {
			stopProf()
			stopProf = nil
		}
		if catsyncFlags.root.memProf != "" {
			if err := internal.HeapProfile(catsyncFlags.root.memProf); err != nil {
				logger.Warn("failed to write heap profile", zap.Error(err))
			}
		}
		_ = logger.Sync()
		if closeLog != nil {
			_ = closeLog()
			closeLog = nil
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		syncCmd.Run(cmd, args)
	},
}

var (
	config   *CLIConfig
	logger   = zap.NewNop()
	stopProf func()
	closeLog func() error
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLocalCatalogFlag(rootCmd)
	addCloudCatalogFlag(rootCmd)
	addEditorExecFlag(rootCmd)
	addEditorDebugFlag(rootCmd)
	addDiffCmdFlag(rootCmd)
	addPatchCmdFlag(rootCmd)
	addNoSmartPreviewsFlag(rootCmd)
	addHashFlag(rootCmd)
	addTempDirFlag(rootCmd)
	addConfigFileFlag(rootCmd)
	addLogLevel(rootCmd)
	addVerboseFlag(rootCmd)
	addLogFileFlag(rootCmd)
	addCPUProfFlag(rootCmd)
	addMemProfFlag(rootCmd)
}

// initConfig reads in config file if any, and completes the flags with it
func initConfig() {
	file := configFileLocation(true)
	if file != noConfig {
		viper.SetConfigFile(file)
		viper.SetConfigType("yaml")
		// a missing config file is not an error: it is created after the first successful run
		if err := viper.ReadInConfig(); err == nil {
			logger.Debug("using config file", zap.String("path", viper.ConfigFileUsed()))
		}
	}

	var err error
	config, err = newConfig()
	if err != nil {
		wrapFatalln("failed to read config", err)
		return
	}
	if err = config.setCatsyncFlags(&catsyncFlags, flagChanged); err != nil {
		wrapFatalln("failed to merge config", err)
		return
	}
}

// commandContext is cancelled when the user interrupts the command
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
