// Copyright © 2018 One Concern

// Package engine synchronizes a local catalog with its shared history.
//
// Three operations are supported, depending on which side exists already:
//   - InitPush publishes a local catalog as the base of a new shared history
//   - InitPull downloads the shared history into a new local catalog
//   - Sync fast-forwards the local catalog, runs the editor, then publishes the edit as a delta
//
// The local catalog is protected by an advisory lock while it is backed up
// and patched. The shared directory is never locked: two clients publishing
// concurrently fork the history, and the fork is detected by the next
// operation building the changeset graph.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/oneconcern/catsync/pkg/changeset"
	"github.com/oneconcern/catsync/pkg/delta"
	"github.com/oneconcern/catsync/pkg/editor"
	"github.com/oneconcern/catsync/pkg/engine/status"
	"github.com/oneconcern/catsync/pkg/hashsum"
	"github.com/oneconcern/catsync/pkg/lock"
	"github.com/oneconcern/catsync/pkg/metafile"
	"github.com/oneconcern/catsync/pkg/previews"
	"github.com/oneconcern/catsync/pkg/transfer"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine runs sync operations for one local catalog
type Engine struct {
	fs    afero.Fs
	paths Paths

	l        *zap.Logger
	tool     delta.Tool
	editor   editor.Editor
	previews bool
	hash     hashsum.Algorithm
	tempDir  string
	now      func() time.Time

	transfer *transfer.Transfer
	syncer   *previews.Syncer
	lock     *lock.Lock
}

// New sync engine for the catalogs located by paths
func New(fs afero.Fs, paths Paths, opts ...Option) *Engine {
	e := &Engine{
		fs:       fs,
		paths:    paths,
		l:        zap.NewNop(),
		editor:   editor.None{},
		previews: true,
		hash:     hashsum.Blake2b,
		now:      time.Now,
	}
	for _, apply := range opts {
		apply(e)
	}
	if e.tool == nil {
		e.tool = delta.NewBSDiff(fs)
	}
	e.l = e.l.With(zap.String("catalog", paths.Local))
	e.transfer = transfer.New(fs, transfer.WithLogger(e.l), transfer.WithTempDir(e.tempDir))
	e.syncer = previews.New(fs, e.transfer, e.l)
	e.lock = lock.New(fs, paths.Local)
	return e
}

// Paths of the synchronized catalogs
func (e *Engine) Paths() Paths {
	return e.paths
}

// InitPush publishes the local catalog as the base of a new shared history
func (e *Engine) InitPush(ctx context.Context) (err error) {
	const op = "init-push"
	if err = e.expect(op,
		fileState{e.paths.Local, true},
		fileState{e.paths.Shared, false},
		fileState{e.paths.LocalRecord(), false},
		fileState{e.paths.SharedRecord(), false},
	); err != nil {
		return err
	}
	e.l.Info(op, zap.String("from", e.paths.Local), zap.String("to", e.paths.Shared))

	g := e.guard()
	if err = g.acquire(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, g.release()) }()

	if err = e.transfer.Copy(e.paths.Local, e.paths.Shared); err != nil {
		return err
	}
	hash, err := e.hash.File(e.fs, e.paths.Local)
	if err != nil {
		return err
	}
	now := e.utcNow()

	checkpoint, err := metafile.LoadCheckpoint(e.fs, e.paths.LocalRecord())
	if err != nil {
		return err
	}
	checkpoint.Catalog = metafile.CatalogInfo{Hash: hash, ModificationUTC: now, Filename: e.paths.Local}
	checkpoint.LastPush = metafile.LastPushInfo{Filename: e.paths.Shared, Hash: hash, ModificationUTC: now}
	if err = checkpoint.Flush(); err != nil {
		return err
	}

	base, err := metafile.NewChangeset(e.fs, e.paths.SharedRecord())
	if err != nil {
		return err
	}
	base.Changeset = metafile.ChangesetInfo{IsBase: true, Hash: hash, ModificationUTC: now, Filename: e.paths.Shared}
	if err = base.Flush(); err != nil {
		return err
	}
	e.l.Info("base published", zap.String("hash", hash), zap.String("path", e.paths.Shared))

	if err = e.pushPreviews(ctx); err != nil {
		return err
	}
	e.l.Info(op + " done")
	return nil
}

// InitPull creates the local catalog from the shared history
func (e *Engine) InitPull(ctx context.Context) (err error) {
	const op = "init-pull"
	if err = e.expect(op,
		fileState{e.paths.Local, false},
		fileState{e.paths.Shared, true},
		fileState{e.paths.LocalRecord(), false},
		fileState{e.paths.SharedRecord(), true},
	); err != nil {
		return err
	}
	e.l.Info(op, zap.String("from", e.paths.Shared), zap.String("to", e.paths.Local))

	g := e.guard()
	if err = g.acquire(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, g.release()) }()

	if err = e.transfer.Copy(e.paths.Shared, e.paths.Local); err != nil {
		return err
	}

	graph, err := e.Graph(ctx)
	if err != nil {
		return err
	}
	path, err := graph.Path(graph.Root().Hash(), graph.Leaf().Hash())
	if err != nil {
		return err
	}
	if err = e.applyChangesets(ctx, path); err != nil {
		return err
	}

	checkpoint, err := metafile.LoadCheckpoint(e.fs, e.paths.LocalRecord())
	if err != nil {
		return err
	}
	if err = e.recordCatalog(checkpoint); err != nil {
		return err
	}
	leaf := graph.Leaf().Info()
	checkpoint.LastPush = metafile.LastPushInfo{Filename: leaf.Filename, Hash: leaf.Hash, ModificationUTC: leaf.ModificationUTC}
	if err = checkpoint.Flush(); err != nil {
		return err
	}

	if err = e.pullPreviews(ctx); err != nil {
		return err
	}
	e.l.Info(op+" done", zap.String("hash", leaf.Hash), zap.Int("changesets", len(path)))
	return nil
}

// Sync runs a full cycle: fast-forward the local catalog to the shared tip,
// run the editor, then publish the local edit as a new changeset.
//
// The lock is released before the editor starts and is not taken again:
// the editor may lock the catalog for itself, and a marker it leaves
// behind must not prevent its edit from being published.
func (e *Engine) Sync(ctx context.Context) (err error) {
	const op = "sync"
	if err = e.expect(op,
		fileState{e.paths.Local, true},
		fileState{e.paths.Shared, true},
	); err != nil {
		return err
	}
	e.l.Info(op, zap.String("local", e.paths.Local), zap.String("shared", e.paths.Shared))

	g := e.guard()
	if err = g.acquire(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, g.release()) }()

	if err = e.backup(); err != nil {
		return err
	}

	checkpoint, err := metafile.LoadCheckpoint(e.fs, e.paths.LocalRecord())
	if err != nil {
		return err
	}
	graph, err := e.Graph(ctx)
	if err != nil {
		return err
	}
	path, err := e.pending(graph, checkpoint)
	if err != nil {
		return err
	}
	if err = e.applyChangesets(ctx, path); err != nil {
		return err
	}
	if err = e.pullPreviews(ctx); err != nil {
		return err
	}
	if err = e.backup(); err != nil {
		return err
	}
	before, err := e.hash.File(e.fs, e.paths.Backup())
	if err != nil {
		return err
	}

	if err = g.release(); err != nil {
		return err
	}
	if err = e.editor.Edit(ctx, e.paths.Local); err != nil {
		return err
	}

	after, err := e.hash.File(e.fs, e.paths.Local)
	if err != nil {
		return err
	}
	leaf := graph.Leaf()
	if after == before {
		e.l.Info("no local change to publish")
		if err = e.recordCatalog(checkpoint); err != nil {
			return err
		}
		checkpoint.LastPush = metafile.LastPushInfo{Filename: leaf.Info().Filename, Hash: leaf.Hash(), ModificationUTC: leaf.Info().ModificationUTC}
	} else {
		published, erp := e.publish(ctx, graph)
		if erp != nil {
			return erp
		}
		if err = e.recordCatalog(checkpoint); err != nil {
			return err
		}
		checkpoint.LastPush = metafile.LastPushInfo{Filename: published.Filename, Hash: published.Hash, ModificationUTC: published.ModificationUTC}
	}
	if err = checkpoint.Flush(); err != nil {
		return err
	}

	if err = e.pushPreviews(ctx); err != nil {
		return err
	}
	e.l.Info(op+" done", zap.String("hash", checkpoint.LastPush.Hash), zap.Int("pulled", len(path)))
	return nil
}

// Graph builds the changeset graph of the shared history
func (e *Engine) Graph(ctx context.Context) (*changeset.Graph, error) {
	graph, err := changeset.Build(ctx, changeset.NewDirSource(e.fs, e.paths.Shared, e.l))
	if err != nil {
		return nil, fmt.Errorf("shared history of %s: %w", e.paths.Shared, err)
	}
	e.l.Info("changeset graph built", zap.Int("changesets", graph.Len()), zap.String("leaf", graph.Leaf().Hash()))
	return graph, nil
}

// pending lists the changesets published since the checkpoint
func (e *Engine) pending(graph *changeset.Graph, checkpoint *metafile.CheckpointRecord) ([]*changeset.Node, error) {
	last := checkpoint.LastPush.Hash
	if _, found := graph.Node(last); !found {
		return nil, status.ErrCheckpoint.Wrapf("last pushed changeset %q recorded in %s", last, checkpoint.Path())
	}
	return graph.Path(last, graph.Leaf().Hash())
}

// recordCatalog updates the catalog section of the checkpoint with the current local catalog
func (e *Engine) recordCatalog(checkpoint *metafile.CheckpointRecord) error {
	hash, err := e.hash.File(e.fs, e.paths.Local)
	if err != nil {
		return err
	}
	checkpoint.Catalog = metafile.CatalogInfo{Hash: hash, ModificationUTC: e.utcNow(), Filename: e.paths.Local}
	return nil
}

// backup replaces the snapshot of the local catalog
func (e *Engine) backup() error {
	e.l.Info("backup", zap.String("path", e.paths.Backup()))
	e.transfer.Remove(e.paths.Backup())
	return e.transfer.Copy(e.paths.Local, e.paths.Backup())
}

func (e *Engine) pushPreviews(ctx context.Context) error {
	if !e.previews {
		return nil
	}
	_, err := e.syncer.Push(ctx, e.paths.Local, e.paths.Shared)
	return err
}

func (e *Engine) pullPreviews(ctx context.Context) error {
	if !e.previews {
		return nil
	}
	_, err := e.syncer.Pull(ctx, e.paths.Local, e.paths.Shared)
	return err
}

func (e *Engine) utcNow() time.Time {
	return e.now().UTC()
}

type fileState struct {
	path   string
	exists bool
}

// expect checks the presence or absence of files before an operation starts
func (e *Engine) expect(op string, states ...fileState) error {
	for _, state := range states {
		exists, err := afero.Exists(e.fs, state.path)
		if err != nil {
			return err
		}
		switch {
		case state.exists && !exists:
			return status.ErrPrecondition.Wrapf("%s: %s does not exist", op, state.path)
		case !state.exists && exists:
			return status.ErrPrecondition.Wrapf("%s: %s already exists", op, state.path)
		}
	}
	return nil
}
