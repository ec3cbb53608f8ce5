package cmd

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/oneconcern/catsync/pkg/delta"
	"github.com/oneconcern/catsync/pkg/editor"
	"github.com/oneconcern/catsync/pkg/engine"
	"github.com/oneconcern/catsync/pkg/hashsum"
	lstatus "github.com/oneconcern/catsync/pkg/lock/status"

	"github.com/spf13/afero"
)

var (
	errMissingCatalogs = errors.New("both --local-catalog and --cloud-catalog must be set, on the command line or in the config file")
	errIncompleteTool  = errors.New("--diff-cmd and --patch-cmd must be set together")
)

// newEngine builds the sync engine from the flags
func newEngine(flags *flagsT) (*engine.Engine, error) {
	if flags.catalog.local == "" || flags.catalog.shared == "" {
		return nil, errMissingCatalogs
	}
	local, err := filepath.Abs(flags.catalog.local)
	if err != nil {
		return nil, err
	}
	shared, err := filepath.Abs(flags.catalog.shared)
	if err != nil {
		return nil, err
	}
	algo, err := hashsum.Parse(flags.core.hash)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	opts := []engine.Option{
		engine.Logger(logger),
		engine.Hash(algo),
		engine.SmartPreviews(!flags.core.noSmartPreviews),
		engine.TempDir(flags.core.tempDir),
	}

	switch diff, patch := flags.tools.diffCmd, flags.tools.patchCmd; {
	case diff != "" && patch != "":
		opts = append(opts, engine.DeltaTool(delta.NewCommand(diff, patch, logger)))
	case diff != "" || patch != "":
		return nil, errIncompleteTool
	}

	switch {
	case flags.tools.editorDebug != "":
		opts = append(opts, engine.Editor(editor.NewDebug(fs, flags.tools.editorDebug, logger)))
	case flags.tools.editorExec != "":
		opts = append(opts, engine.Editor(editor.NewExec(flags.tools.editorExec, logger)))
	}

	return engine.New(fs, engine.Paths{Local: local, Shared: shared}, opts...), nil
}

// runEngine runs an operation of the sync engine, then saves the settings
func runEngine(name string, op func(context.Context, *engine.Engine) error) {
	e, err := newEngine(&catsyncFlags)
	if err != nil {
		wrapFatalln(name, err)
		return
	}

	ctx, cancel := commandContext()
	defer cancel()
	if err = op(ctx, e); err != nil {
		if errors.Is(err, lstatus.ErrLocked) {
			wrapFatalWithCodef(exitLocked, "%s: %v", name, err)
			return
		}
		wrapFatalln(name+" failed", err)
		return
	}
	if err = saveConfig(&catsyncFlags); err != nil {
		wrapFatalln("saving settings", err)
		return
	}
}
