package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imdario/mergo"
	"github.com/natefinch/atomic"
	"github.com/nightlyone/lockfile"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	envConfigLocation = "CATSYNC_CONFIG"
	noConfig          = "none"
	defaultConfigDir  = ".catsync"
	defaultConfigName = "catsync.yaml"
)

// CLIConfig describes the settings saved from one run to the next
type CLIConfig struct {
	LocalCatalog    string `json:"local-catalog" yaml:"local-catalog" mapstructure:"local-catalog"`
	CloudCatalog    string `json:"cloud-catalog" yaml:"cloud-catalog" mapstructure:"cloud-catalog"`
	EditorExec      string `json:"editor-exec,omitempty" yaml:"editor-exec,omitempty" mapstructure:"editor-exec"`
	EditorDebug     string `json:"editor-exec-debug,omitempty" yaml:"editor-exec-debug,omitempty" mapstructure:"editor-exec-debug"`
	DiffCmd         string `json:"diff-cmd,omitempty" yaml:"diff-cmd,omitempty" mapstructure:"diff-cmd"`
	PatchCmd        string `json:"patch-cmd,omitempty" yaml:"patch-cmd,omitempty" mapstructure:"patch-cmd"`
	NoSmartPreviews bool   `json:"no-smart-previews,omitempty" yaml:"no-smart-previews,omitempty" mapstructure:"no-smart-previews"`
	Hash            string `json:"hash,omitempty" yaml:"hash,omitempty" mapstructure:"hash"`
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// configFileLocation returns the configuration file in use, or its documented
// location when resolve is false
func configFileLocation(resolve bool) string {
	if resolve && catsyncFlags.root.configFile != "" {
		return catsyncFlags.root.configFile
	}
	if env := os.Getenv(envConfigLocation); env != "" {
		return env
	}
	if !resolve {
		return filepath.Join("$HOME", defaultConfigDir, defaultConfigName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return noConfig
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigName)
}

// fromFlags captures the settings given on the command line
func fromFlags(flags *flagsT) CLIConfig {
	return CLIConfig{
		LocalCatalog:    flags.catalog.local,
		CloudCatalog:    flags.catalog.shared,
		EditorExec:      flags.tools.editorExec,
		EditorDebug:     flags.tools.editorDebug,
		DiffCmd:         flags.tools.diffCmd,
		PatchCmd:        flags.tools.patchCmd,
		NoSmartPreviews: flags.core.noSmartPreviews,
		Hash:            flags.core.hash,
	}
}

// setCatsyncFlags completes the flags with saved settings. Values given on the
// command line win: non-empty strings always, booleans when changed tells the
// flag was set explicitly.
func (c *CLIConfig) setCatsyncFlags(flags *flagsT, changed func(string) bool) error {
	merged := *c
	given := fromFlags(flags)
	if err := mergo.Merge(&merged, given, mergo.WithOverride); err != nil {
		return err
	}
	// false never overrides with mergo
	if changed(noSmartPreviewsFlag) {
		merged.NoSmartPreviews = given.NoSmartPreviews
	}

	flags.catalog.local = expandPath(merged.LocalCatalog)
	flags.catalog.shared = expandPath(merged.CloudCatalog)
	flags.tools.editorExec = merged.EditorExec
	flags.tools.editorDebug = merged.EditorDebug
	flags.tools.diffCmd = merged.DiffCmd
	flags.tools.patchCmd = merged.PatchCmd
	flags.core.noSmartPreviews = merged.NoSmartPreviews
	flags.core.hash = merged.Hash
	return nil
}

// flagChanged tells if a persistent flag was set on the command line
func flagChanged(name string) bool {
	f := rootCmd.PersistentFlags().Lookup(name)
	return f != nil && f.Changed
}

// MarshalConfig serializes the configuration as yaml
func (c CLIConfig) MarshalConfig() ([]byte, error) {
	return yaml.Marshal(c)
}

// saveConfig writes back the effective settings, so the next run needs no flag.
//
// Concurrent runs are serialized by a lock file next to the configuration.
func saveConfig(flags *flagsT) error {
	file := configFileLocation(true)
	if file == noConfig {
		return nil
	}
	file, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return fmt.Errorf("could not create directory to hold config %s: %w", filepath.Dir(file), err)
	}

	o, err := fromFlags(flags).MarshalConfig()
	if err != nil {
		return fmt.Errorf("could not serialize config to yaml: %w", err)
	}

	cfgLock, err := lockfile.New(file + ".lock")
	if err != nil {
		return err
	}
	if err = cfgLock.TryLock(); err != nil {
		return fmt.Errorf("config file %s is being written by another process: %w", file, err)
	}
	defer func() {
		_ = cfgLock.Unlock()
	}()

	if err = atomic.WriteFile(file, bytes.NewReader(o)); err != nil {
		return fmt.Errorf("error writing config file %s: %w", file, err)
	}
	return nil
}

// expandPath resolves a leading ~ to the home directory of the user
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
