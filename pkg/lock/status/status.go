// Package status declares error constants returned by the lock package.
package status

import "github.com/oneconcern/catsync/pkg/errors"

var (
	// ErrLocked indicates that the lock marker is already present
	ErrLocked = errors.New("catalog is locked")
)
