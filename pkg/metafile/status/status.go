// Package status declares error constants returned by the metafile package.
package status

import "github.com/oneconcern/catsync/pkg/errors"

var (
	// ErrMalformed indicates a record which lacks a mandatory field, or holds a value of the wrong kind
	ErrMalformed = errors.New("malformed metadata record")

	// ErrNotExists indicates that a record expected to describe a published object is missing
	ErrNotExists = errors.New("metadata record doesn't exist")
)
