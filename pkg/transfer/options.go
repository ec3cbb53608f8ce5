package transfer

import (
	"go.uber.org/zap"
)

// Option sets options for transfers
type Option func(*Transfer)

// WithLogger sets the logger. It defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transfer) {
		if l != nil {
			t.l = l
		}
	}
}

// WithTempDir sets the parent directory of temporary extraction directories.
// It defaults to the system temporary directory.
func WithTempDir(dir string) Option {
	return func(t *Transfer) {
		t.tempDir = dir
	}
}
