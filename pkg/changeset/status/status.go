// Package status declares error constants returned by the changeset package.
//
// All of them but ErrUnknownHash denote an inconsistent shared history,
// which must be repaired by hand: the graph never attempts to fix it.
package status

import (
	"github.com/oneconcern/catsync/pkg/errors"
)

var (
	// ErrEmpty indicates a shared directory holding no changeset at all
	ErrEmpty = errors.New("no changeset published for this catalog")

	// ErrNoBase indicates a history without base changeset
	ErrNoBase = errors.New("no base changeset")

	// ErrMultipleBases indicates a history with more than one base changeset
	ErrMultipleBases = errors.New("more than one base changeset")

	// ErrDuplicateHash indicates two records describing the same changeset hash
	ErrDuplicateHash = errors.New("duplicate changeset hash")

	// ErrDanglingParent indicates a changeset whose parent is not published
	ErrDanglingParent = errors.New("parent changeset not found")

	// ErrBranching indicates two changesets applying to the same parent: concurrent publications forked the history
	ErrBranching = errors.New("history is forked")

	// ErrMultipleLeaves indicates more than one current tip
	ErrMultipleLeaves = errors.New("more than one leaf changeset")

	// ErrDetached indicates changesets which cannot be reached from the base
	ErrDetached = errors.New("changesets detached from the base")

	// ErrUnreachable indicates that no path leads from one changeset to another
	ErrUnreachable = errors.New("no path between changesets")

	// ErrUnknownHash indicates a hash which designates no published changeset
	ErrUnknownHash = errors.New("unknown changeset")
)

// IsInconsistent tells if err reports an inconsistent shared history
func IsInconsistent(err error) bool {
	for _, target := range []error{
		ErrNoBase, ErrMultipleBases, ErrDuplicateHash, ErrDanglingParent,
		ErrBranching, ErrMultipleLeaves, ErrDetached, ErrUnreachable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
