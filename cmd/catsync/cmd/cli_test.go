package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/catsync/pkg/dlogger"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type ExitMocks struct {
	mock.Mock
	fatalCalls int
	exitCode   int
}

func (m *ExitMocks) Exit(code int) {
	m.exitCode = code
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	m.fatalCalls++
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	m.fatalCalls++
}

// https://github.com/stretchr/testify/issues/610
func MakeFatalfMock(m *ExitMocks) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		m.Fatalf(format, v...)
	}
}

func MakeFatallnMock(m *ExitMocks) func(...interface{}) {
	return func(v ...interface{}) {
		m.Fatalln(v...)
	}
}

var exitMocks *ExitMocks

type testDirs struct {
	root    string
	shared  string
	localA  string
	localB  string
	configA string
	configB string
}

func setupTests(t *testing.T) (testDirs, func()) {
	root, err := ioutil.TempDir("", "catsync-cli-")
	require.NoError(t, err)
	dirs := testDirs{
		root:    root,
		shared:  filepath.Join(root, "cloud", "photos.lrcat"),
		localA:  filepath.Join(root, "a", "photos.lrcat"),
		localB:  filepath.Join(root, "b", "photos.lrcat"),
		configA: filepath.Join(root, "a", "catsync.yaml"),
		configB: filepath.Join(root, "b", "catsync.yaml"),
	}
	for _, dir := range []string{dirs.shared, dirs.localA, dirs.localB} {
		require.NoError(t, os.MkdirAll(filepath.Dir(dir), 0700))
	}

	exitMocks = new(ExitMocks)
	logFatalf = MakeFatalfMock(exitMocks)
	logFatalln = MakeFatallnMock(exitMocks)
	osExit = exitMocks.Exit

	cleanup := func() {
		_ = os.RemoveAll(root)
	}
	return dirs, cleanup
}

// runCommand executes the CLI with args, starting from default flags
func runCommand(t *testing.T, args ...string) {
	catsyncFlags = flagsT{}
	catsyncFlags.root.logLevel = dlogger.LogLevelNone
	viper.Reset()
	rootCmd.SetArgs(append(args, "--log-level", dlogger.LogLevelNone, "--no-smart-previews"))
	require.NoError(t, rootCmd.Execute())
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCLIEndToEnd(t *testing.T) {
	dirs, cleanup := setupTests(t)
	defer cleanup()
	require.NoError(t, ioutil.WriteFile(dirs.localA, []byte("Init\n"), 0600))

	runCommand(t, "init-push",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", dirs.configA,
	)
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Equal(t, "Init\n", readFile(t, dirs.shared))

	// catalogs are taken from the saved settings
	runCommand(t, "sync", "--config-file", dirs.configA, "--editor-exec-debug", "I am #1")
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Equal(t, "Init\nI am #1\n", readFile(t, dirs.localA))

	runCommand(t, "init-pull",
		"--local-catalog", dirs.localB,
		"--cloud-catalog", dirs.shared,
		"--config-file", dirs.configB,
	)
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Equal(t, "Init\nI am #1\n", readFile(t, dirs.localB))

	runCommand(t, "sync", "--config-file", dirs.configB, "--editor-exec-debug", "I am #2")
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Equal(t, "Init\nI am #1\nI am #2\n", readFile(t, dirs.localB))

	// sync is the default command
	runCommand(t, "--config-file", dirs.configA, "--editor-exec-debug", "I am #1")
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Equal(t, "Init\nI am #1\nI am #2\nI am #1\n", readFile(t, dirs.localA))

	_, err := os.Stat(dirs.localA + ".lock")
	assert.True(t, os.IsNotExist(err))

	var saved CLIConfig
	require.NoError(t, yaml.Unmarshal([]byte(readFile(t, dirs.configA)), &saved))
	assert.Equal(t, dirs.localA, saved.LocalCatalog)
	assert.Equal(t, dirs.shared, saved.CloudCatalog)
	assert.True(t, saved.NoSmartPreviews)
}

func TestCLIHistory(t *testing.T) {
	dirs, cleanup := setupTests(t)
	defer cleanup()
	require.NoError(t, ioutil.WriteFile(dirs.localA, []byte("Init\n"), 0600))

	runCommand(t, "init-push",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", dirs.configA,
	)
	runCommand(t, "sync", "--config-file", dirs.configA, "--editor-exec-debug", "I am #1")
	require.Equal(t, 0, exitMocks.fatalCalls)

	var out bytes.Buffer
	infoLogger.SetOutput(&out)
	defer infoLogger.SetOutput(os.Stdout)

	runCommand(t, "log", "--json", "--config-file", dirs.configA)
	require.Equal(t, 0, exitMocks.fatalCalls)
	var entries []historyEntry
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsBase)
	assert.Equal(t, dirs.shared, entries[0].Filename)
	assert.EqualValues(t, len("Init\n"), entries[0].Size)
	assert.False(t, entries[1].IsBase)
	assert.Positive(t, entries[1].Size)

	runCommand(t, "log", "--config-file", dirs.configA)
	require.Equal(t, 0, exitMocks.fatalCalls)

	out.Reset()
	logFile := filepath.Join(dirs.root, "catsync.log")
	runCommand(t, "status", "--config-file", dirs.configA, "--log-file", logFile)
	require.Equal(t, 0, exitMocks.fatalCalls)
	assert.Contains(t, out.String(), entries[1].Hash)
	assert.Contains(t, out.String(), "0 changeset(s)")
	assert.Contains(t, readFile(t, logFile), "changeset graph built")

	out.Reset()
	runCommand(t, "version", "--config-file", noConfig)
	assert.Contains(t, out.String(), "Version: dev")
}

func TestCLIFailures(t *testing.T) {
	dirs, cleanup := setupTests(t)
	defer cleanup()
	require.NoError(t, ioutil.WriteFile(dirs.localA, []byte("Init\n"), 0600))

	// no catalog configured
	runCommand(t, "sync", "--config-file", noConfig)
	assert.Equal(t, 1, exitMocks.fatalCalls)

	// the shared catalog does not exist yet
	runCommand(t, "init-pull",
		"--local-catalog", dirs.localB,
		"--cloud-catalog", dirs.shared,
		"--config-file", dirs.configB,
	)
	assert.Equal(t, 2, exitMocks.fatalCalls)
	_, err := os.Stat(dirs.configB)
	assert.True(t, os.IsNotExist(err), "settings are only saved after a successful run")

	runCommand(t, "init-push",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", noConfig,
		"--diff-cmd", "bsdiff $in1 $in2 $out",
	)
	assert.Equal(t, 3, exitMocks.fatalCalls)

	runCommand(t, "init-push",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", noConfig,
		"--hash", "md5",
	)
	assert.Equal(t, 4, exitMocks.fatalCalls)

	runCommand(t, "init-push",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", noConfig,
		"--hash", "sha1",
	)
	assert.Equal(t, 4, exitMocks.fatalCalls)

	// locked by another process
	require.NoError(t, ioutil.WriteFile(dirs.localA+".lock", nil, 0600))
	runCommand(t, "sync",
		"--local-catalog", dirs.localA,
		"--cloud-catalog", dirs.shared,
		"--config-file", noConfig,
		"--hash", "sha1",
	)
	assert.Equal(t, 4, exitMocks.fatalCalls)
	assert.Equal(t, exitLocked, exitMocks.exitCode)
	_, err = os.Stat(dirs.localA + ".lock")
	assert.NoError(t, err)
}
