// Package delta computes and applies binary deltas between two versions of
// a catalog.
//
// The Tool interface abstracts the diff/patch pair: Command runs external
// programs from templated command lines, BSDiff does the same work
// in-process. Both are interchangeable as long as the same Tool is used by
// all the clients of a shared catalog.
package delta

import (
	"context"
)

// Tool produces and applies binary deltas.
//
// Applying the delta produced by Diff(first, second, out) to first with
// Patch reproduces second, byte for byte.
type Tool interface {
	// Diff writes at out the delta turning first into second
	Diff(ctx context.Context, first, second, out string) error

	// Patch applies delta to input, writing the result at out
	Patch(ctx context.Context, input, delta, out string) error
}
