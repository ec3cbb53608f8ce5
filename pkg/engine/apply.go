package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oneconcern/catsync/pkg/changeset"
	"github.com/oneconcern/catsync/pkg/engine/status"
	"github.com/oneconcern/catsync/pkg/metafile"

	"go.uber.org/zap"
)

const (
	scratchPrefix = "catsync-patch-"
	deltaPrefix   = "catsync-diff-"

	scratchCatalog = "catalog"
	scratchDelta   = "delta.patch"
)

// applyChangesets patches the local catalog with every changeset on path, in order.
//
// The scratch directory is removed once the whole batch is applied. When a
// patch fails, it is left behind with the previous catalog and the delta.
func (e *Engine) applyChangesets(ctx context.Context, path []*changeset.Node) error {
	if len(path) == 0 {
		e.l.Info("local catalog is up to date")
		return nil
	}

	scratch, err := e.transfer.TempDir(scratchPrefix)
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	previous := filepath.Join(scratch, scratchCatalog)
	patch := filepath.Join(scratch, scratchDelta)

	for i, node := range path {
		if err = ctx.Err(); err != nil {
			break
		}
		e.l.Info("applying changeset",
			zap.String("hash", node.Hash()),
			zap.Int("changeset", i+1),
			zap.Int("changesets", len(path)),
		)
		if err = e.transfer.Copy(node.Info().Filename, patch); err != nil {
			break
		}
		if err = e.transfer.Move(e.paths.Local, previous); err != nil {
			break
		}
		if err = e.tool.Patch(ctx, previous, patch, e.paths.Local); err != nil {
			err = fmt.Errorf("applying changeset %s: %w", node.Hash(), err)
			break
		}
	}
	if err != nil {
		e.l.Warn("scratch directory left for inspection", zap.String("path", scratch))
		return err
	}

	e.transfer.Remove(scratch)
	return nil
}

// publish computes the delta of the local edit and publishes it after the current leaf
func (e *Engine) publish(ctx context.Context, graph *changeset.Graph) (metafile.ChangesetInfo, error) {
	var info metafile.ChangesetInfo

	tmp, err := e.transfer.TempDir(deltaPrefix)
	if err != nil {
		return info, fmt.Errorf("creating scratch directory: %w", err)
	}
	out := filepath.Join(tmp, scratchDelta)
	if err = e.tool.Diff(ctx, e.paths.Backup(), e.paths.Local, out); err != nil {
		e.l.Warn("unpublished delta left for inspection", zap.String("path", tmp))
		return info, err
	}
	hash, err := e.hash.File(e.fs, out)
	if err != nil {
		return info, err
	}
	if _, found := graph.Node(hash); found {
		return info, status.ErrPublished.Wrapf("%s", hash)
	}

	leaf := graph.Leaf()
	target := changeset.DeltaPath(e.paths.Shared, hash)
	if err = e.transfer.Copy(out, target); err != nil {
		return info, err
	}

	rec, err := metafile.NewChangeset(e.fs, metafile.PathFor(target))
	if err != nil {
		return info, err
	}
	info = metafile.ChangesetInfo{IsBase: false, Hash: hash, ModificationUTC: e.utcNow(), Filename: target}
	parent := metafile.ParentInfo(leaf.Info())
	rec.Changeset = info
	rec.Parent = &parent
	if err = rec.Flush(); err != nil {
		return info, err
	}
	e.l.Info("changeset published", zap.String("hash", hash), zap.String("parent", leaf.Hash()), zap.String("path", target))

	e.transfer.Remove(tmp)
	return info, nil
}
