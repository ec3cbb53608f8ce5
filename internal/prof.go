// Package internal holds helpers for the catsync binary which are not part of the library.
package internal

import (
	"os"
	"runtime/pprof"

	"go.uber.org/zap"
)

// CPUProfile records a CPU profile of the running command into path.
// The returned function stops the profile and must be called before exiting.
func CPUProfile(path string, l *zap.Logger) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err = pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	l.Info("cpu profiling", zap.String("path", path))
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			l.Warn("cannot close cpu profile", zap.String("path", path), zap.Error(err))
		}
	}, nil
}

// HeapProfile writes a heap profile into path
func HeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.Lookup("heap").WriteTo(f, 0)
}
