// Package previews keeps the smart previews cache of a catalog in sync.
//
// For a catalog X.lrcat, previews live in the sibling directory
// "X Smart Previews.lrdata". Previews are never patched: files are copied
// whenever the destination is missing or older than the source.
package previews

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/catsync/pkg/transfer"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const dirSuffix = " Smart Previews.lrdata"

// Dir returns the smart previews directory of a catalog
func Dir(catalog string) string {
	return strings.TrimSuffix(catalog, filepath.Ext(catalog)) + dirSuffix
}

// Syncer copies preview caches between a local and a shared catalog
type Syncer struct {
	fs afero.Fs
	t  *transfer.Transfer
	l  *zap.Logger
}

// New Syncer
func New(fs afero.Fs, t *transfer.Transfer, l *zap.Logger) *Syncer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Syncer{fs: fs, t: t, l: l}
}

// Push updates the shared previews from the local ones. It returns the number of copied files.
func (s *Syncer) Push(ctx context.Context, local, shared string) (int, error) {
	return s.update(ctx, Dir(local), Dir(shared))
}

// Pull updates the local previews from the shared ones. It returns the number of copied files.
func (s *Syncer) Pull(ctx context.Context, local, shared string) (int, error) {
	return s.update(ctx, Dir(shared), Dir(local))
}

func (s *Syncer) update(ctx context.Context, src, dst string) (int, error) {
	exists, err := afero.DirExists(s.fs, src)
	if err != nil {
		return 0, err
	}
	if !exists {
		s.l.Debug("no smart previews", zap.String("path", src))
		return 0, nil
	}

	var copied int
	err = afero.Walk(s.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return s.fs.MkdirAll(target, 0700)
		}

		current, err := s.fs.Stat(target)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return err
		case !info.ModTime().After(current.ModTime()):
			return nil
		}
		if err = s.t.Copy(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("updating smart previews %s from %s: %w", dst, src, err)
	}
	s.l.Info("smart previews updated", zap.String("from", src), zap.String("to", dst), zap.Int("files", copied))
	return copied, nil
}
