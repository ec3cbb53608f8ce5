// Package editor runs the application which edits a catalog between the
// download and the upload halves of a sync cycle.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Editor edits a catalog in place. Edit blocks until the editing session is over.
type Editor interface {
	Edit(ctx context.Context, catalog string) error
}

var (
	_ Editor = &Exec{}
	_ Editor = &Debug{}
	_ Editor = None{}
)

// Exec runs an external executable with the catalog as sole argument.
//
// The exit status of the editor is logged but otherwise ignored: only a
// failure to start it is reported.
type Exec struct {
	Path string
	l    *zap.Logger
}

// NewExec builds an editor running the executable at path
func NewExec(path string, l *zap.Logger) *Exec {
	if l == nil {
		l = zap.NewNop()
	}
	return &Exec{Path: path, l: l}
}

// Edit runs the editor and waits for it to exit
func (e *Exec) Edit(ctx context.Context, catalog string) error {
	e.l.Info("starting editor", zap.String("editor", e.Path), zap.String("catalog", catalog))
	cmd := exec.CommandContext(ctx, e.Path, catalog)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting editor %s: %w", e.Path, err)
	}
	if err := cmd.Wait(); err != nil {
		e.l.Warn("editor exited with an error", zap.String("editor", e.Path), zap.Error(err))
		return nil
	}
	e.l.Info("editor exit", zap.String("editor", e.Path))
	return nil
}

// Debug stands in for a real editor: it appends a marker line to the catalog.
type Debug struct {
	Marker string
	fs     afero.Fs
	l      *zap.Logger
}

// NewDebug builds a debug editor appending marker
func NewDebug(fs afero.Fs, marker string, l *zap.Logger) *Debug {
	if l == nil {
		l = zap.NewNop()
	}
	return &Debug{Marker: marker, fs: fs, l: l}
}

// Edit appends the marker followed by a newline
func (d *Debug) Edit(_ context.Context, catalog string) error {
	d.l.Info("debug editor appending marker", zap.String("marker", d.Marker), zap.String("catalog", catalog))
	f, err := d.fs.OpenFile(catalog, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("debug editor: %w", err)
	}
	if _, err = f.WriteString(d.Marker + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("debug editor: %w", err)
	}
	return f.Close()
}

// None leaves the catalog untouched
type None struct{}

// Edit does nothing
func (None) Edit(context.Context, string) error {
	return nil
}
