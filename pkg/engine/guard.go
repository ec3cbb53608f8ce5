package engine

import (
	"github.com/oneconcern/catsync/pkg/lock"

	"go.uber.org/zap"
)

// guard tracks whether this process holds the lock, so that a lock
// taken by someone else is never released on their behalf.
type guard struct {
	lock *lock.Lock
	held bool
	l    *zap.Logger
}

func (e *Engine) guard() *guard {
	return &guard{lock: e.lock, l: e.l}
}

func (g *guard) acquire() error {
	if err := g.lock.TryLock(); err != nil {
		return err
	}
	g.held = true
	g.l.Info("locked", zap.String("path", g.lock.Path()))
	return nil
}

// release is idempotent
func (g *guard) release() error {
	if !g.held {
		return nil
	}
	g.held = false
	if _, err := g.lock.Unlock(); err != nil {
		return err
	}
	g.l.Info("unlocked", zap.String("path", g.lock.Path()))
	return nil
}
