// Package status declares error constants returned by the transfer package.
package status

import "github.com/oneconcern/catsync/pkg/errors"

var (
	// ErrArchiveEntries indicates an archive which does not hold exactly one file
	ErrArchiveEntries = errors.New("archive should hold exactly one compressed file")
)
