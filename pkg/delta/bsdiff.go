package delta

import (
	"context"
	"os"

	"github.com/oneconcern/catsync/pkg/delta/status"

	"github.com/kr/binarydist"
	"github.com/spf13/afero"
)

var _ Tool = &BSDiff{}

// BSDiff computes deltas in-process, in the format of the bsdiff 4.x
// tools: deltas may be applied by an external bspatch and the other way
// round.
type BSDiff struct {
	fs afero.Fs
}

// NewBSDiff builds the in-process tool working on fs
func NewBSDiff(fs afero.Fs) *BSDiff {
	return &BSDiff{fs: fs}
}

// Diff writes the delta turning first into second
func (b *BSDiff) Diff(ctx context.Context, first, second, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oldFile, err := b.fs.Open(first)
	if err != nil {
		return status.ErrDelta.Wrap(err)
	}
	defer oldFile.Close()

	newFile, err := b.fs.Open(second)
	if err != nil {
		return status.ErrDelta.Wrap(err)
	}
	defer newFile.Close()

	return b.create(out, func(w afero.File) error {
		return binarydist.Diff(oldFile, newFile, w)
	})
}

// Patch applies a delta to input, writing the result at out
func (b *BSDiff) Patch(ctx context.Context, input, delta, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oldFile, err := b.fs.Open(input)
	if err != nil {
		return status.ErrDelta.Wrap(err)
	}
	defer oldFile.Close()

	patch, err := b.fs.Open(delta)
	if err != nil {
		return status.ErrDelta.Wrap(err)
	}
	defer patch.Close()

	return b.create(out, func(w afero.File) error {
		return binarydist.Patch(oldFile, w, patch)
	})
}

func (b *BSDiff) create(out string, write func(afero.File) error) error {
	w, err := b.fs.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return status.ErrDelta.Wrap(err)
	}
	if err = write(w); err != nil {
		_ = w.Close()
		return status.ErrDelta.Wrapf("%s: %v", out, err)
	}
	if err = w.Close(); err != nil {
		return status.ErrDelta.Wrap(err)
	}
	return nil
}
