// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/catsync/pkg/dlogger"
	"github.com/oneconcern/catsync/pkg/hashsum"

	"github.com/spf13/cobra"
)

type flagsT struct {
	catalog struct {
		local  string
		shared string
	}
	tools struct {
		editorExec  string
		editorDebug string
		diffCmd     string
		patchCmd    string
	}
	core struct {
		noSmartPreviews bool
		hash            string
		tempDir         string
	}
	root struct {
		configFile string
		logLevel   string
		verbose    bool
		logFile    string
		cpuProf    string
		memProf    string
	}
	log struct {
		json bool
	}
}

var catsyncFlags = flagsT{}

func addLocalCatalogFlag(cmd *cobra.Command) string {
	local := "local-catalog"
	cmd.PersistentFlags().StringVar(&catsyncFlags.catalog.local, local, "",
		"The local catalog file, e.g. ~/Pictures/Lightroom/Lightroom Catalog.lrcat")
	return local
}

func addCloudCatalogFlag(cmd *cobra.Command) string {
	cloud := "cloud-catalog"
	cmd.PersistentFlags().StringVar(&catsyncFlags.catalog.shared, cloud, "",
		"The catalog in the shared directory, e.g. ~/Dropbox/Lightroom/catalog.lrcat")
	return cloud
}

func addEditorExecFlag(cmd *cobra.Command) string {
	editor := "editor-exec"
	cmd.PersistentFlags().StringVar(&catsyncFlags.tools.editorExec, editor, "",
		"The application started on the local catalog between download and upload")
	return editor
}

func addEditorDebugFlag(cmd *cobra.Command) string {
	debug := "editor-exec-debug"
	cmd.PersistentFlags().StringVar(&catsyncFlags.tools.editorDebug, debug, "",
		"Instead of starting the editor, append this line to the local catalog (for testing)")
	return debug
}

func addDiffCmdFlag(cmd *cobra.Command) string {
	diff := "diff-cmd"
	cmd.PersistentFlags().StringVar(&catsyncFlags.tools.diffCmd, diff, "",
		"The command computing a delta from $in1 to $in2 into $out, e.g. \"bsdiff $in1 $in2 $out\". "+
			"Deltas are computed in-process when not set")
	return diff
}

func addPatchCmdFlag(cmd *cobra.Command) string {
	patch := "patch-cmd"
	cmd.PersistentFlags().StringVar(&catsyncFlags.tools.patchCmd, patch, "",
		"The command applying the delta $patch to $in1 into $out, e.g. \"bspatch $in1 $out $patch\". "+
			"Deltas are applied in-process when not set")
	return patch
}

const noSmartPreviewsFlag = "no-smart-previews"

func addNoSmartPreviewsFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().BoolVar(&catsyncFlags.core.noSmartPreviews, noSmartPreviewsFlag, false,
		"Do not sync the smart previews of the catalog. Use --no-smart-previews=false to enable a saved setting again")
	return noSmartPreviewsFlag
}

func addHashFlag(cmd *cobra.Command) string {
	hash := "hash"
	cmd.PersistentFlags().StringVar(&catsyncFlags.core.hash, hash, "",
		"The content hash identifying changesets: "+string(hashsum.Blake2b)+" (default) or "+string(hashsum.SHA1)+
			" for shared directories created by earlier tools")
	return hash
}

func addTempDirFlag(cmd *cobra.Command) string {
	tmp := "temp-dir"
	cmd.PersistentFlags().StringVar(&catsyncFlags.core.tempDir, tmp, "",
		"The directory holding scratch files. Defaults to the system temporary directory")
	return tmp
}

func addConfigFileFlag(cmd *cobra.Command) string {
	configFile := "config-file"
	cmd.PersistentFlags().StringVar(&catsyncFlags.root.configFile, configFile, "",
		"The configuration file, or \""+noConfig+"\" to neither read nor save a configuration. Defaults to "+
			configFileLocation(false))
	return configFile
}

func addLogLevel(cmd *cobra.Command) string {
	logLevel := "log-level"
	cmd.PersistentFlags().StringVar(&catsyncFlags.root.logLevel, logLevel, dlogger.LogLevelWarn,
		"The logging level: debug, info, warn, error or none")
	return logLevel
}

func addVerboseFlag(cmd *cobra.Command) string {
	verbose := "verbose"
	cmd.PersistentFlags().BoolVarP(&catsyncFlags.root.verbose, verbose, "v", false,
		"Log every step, same as --log-level info")
	return verbose
}

func addJSONFlag(cmd *cobra.Command) string {
	json := "json"
	cmd.Flags().BoolVar(&catsyncFlags.log.json, json, false, "Print the history as JSON")
	return json
}

func addLogFileFlag(cmd *cobra.Command) string {
	logFile := "log-file"
	cmd.PersistentFlags().StringVar(&catsyncFlags.root.logFile, logFile, "",
		"Also log every step to this file, rotated when it grows over 10 MB")
	return logFile
}

func addCPUProfFlag(cmd *cobra.Command) string {
	cpuProf := "cpu-prof"
	cmd.PersistentFlags().StringVar(&catsyncFlags.root.cpuProf, cpuProf, "", "Write a cpu profile of the command to this file")
	_ = cmd.PersistentFlags().MarkHidden(cpuProf)
	return cpuProf
}

func addMemProfFlag(cmd *cobra.Command) string {
	memProf := "mem-prof"
	cmd.PersistentFlags().StringVar(&catsyncFlags.root.memProf, memProf, "", "Write a heap profile to this file when the command is done")
	_ = cmd.PersistentFlags().MarkHidden(memProf)
	return memProf
}
