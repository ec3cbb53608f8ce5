// Package status declares error constants returned by the delta package.
package status

import "github.com/oneconcern/catsync/pkg/errors"

var (
	// ErrCommand indicates that an external diff or patch command failed
	ErrCommand = errors.New("delta command failed")

	// ErrNoCommand indicates a command line template which is empty
	ErrNoCommand = errors.New("no delta command configured")

	// ErrDelta indicates a delta which could not be produced or applied in-process
	ErrDelta = errors.New("binary delta failed")
)
