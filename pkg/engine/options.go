package engine

import (
	"time"

	"github.com/oneconcern/catsync/pkg/delta"
	"github.com/oneconcern/catsync/pkg/editor"
	"github.com/oneconcern/catsync/pkg/hashsum"

	"go.uber.org/zap"
)

// Option sets options for the sync engine
type Option func(*Engine)

// Logger sets the logger. It defaults to a no-op logger.
func Logger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// DeltaTool sets the tool computing and applying deltas. It defaults to the in-process bsdiff.
func DeltaTool(t delta.Tool) Option {
	return func(e *Engine) {
		e.tool = t
	}
}

// Editor sets the editor run during a sync cycle. It defaults to editor.None.
func Editor(ed editor.Editor) Option {
	return func(e *Engine) {
		e.editor = ed
	}
}

// SmartPreviews toggles the sync of smart previews. It defaults to true.
func SmartPreviews(enabled bool) Option {
	return func(e *Engine) {
		e.previews = enabled
	}
}

// Hash sets the content hash identifying changesets. It defaults to hashsum.Blake2b.
func Hash(a hashsum.Algorithm) Option {
	return func(e *Engine) {
		if a != "" {
			e.hash = a
		}
	}
}

// TempDir sets the parent of scratch directories. It defaults to the system temporary directory.
func TempDir(dir string) Option {
	return func(e *Engine) {
		e.tempDir = dir
	}
}

// Clock sets the source of modification times recorded in metadata. It defaults to time.Now.
func Clock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
