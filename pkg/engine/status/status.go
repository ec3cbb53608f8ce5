// Package status declares error constants returned by the sync engine
package status

import (
	"github.com/oneconcern/catsync/pkg/errors"
)

var (
	// ErrPrecondition indicates an operation started against files in an unexpected state.
	// Nothing has been modified when this error is returned.
	ErrPrecondition = errors.New("precondition failed")

	// ErrCheckpoint indicates a local checkpoint which does not designate any published changeset
	ErrCheckpoint = errors.New("local checkpoint not found in shared history")

	// ErrPublished indicates a new delta colliding with an already published changeset
	ErrPublished = errors.New("changeset already published")
)
