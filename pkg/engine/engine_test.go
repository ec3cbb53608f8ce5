package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oneconcern/catsync/pkg/changeset"
	cstatus "github.com/oneconcern/catsync/pkg/changeset/status"
	"github.com/oneconcern/catsync/pkg/editor"
	"github.com/oneconcern/catsync/pkg/engine/status"
	"github.com/oneconcern/catsync/pkg/errors"
	"github.com/oneconcern/catsync/pkg/lock"
	lstatus "github.com/oneconcern/catsync/pkg/lock/status"
	"github.com/oneconcern/catsync/pkg/metafile"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	sharedCatalog = "/cloud/photos.lrcat"
	catalogA      = "/home/a/photos.lrcat"
	catalogB      = "/home/b/photos.lrcat"
	scratchRoot   = "/scratch"
)

type fixture struct {
	t  *testing.T
	fs afero.Fs
}

func setupEngine(t *testing.T) *fixture {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{filepath.Dir(sharedCatalog), filepath.Dir(catalogA), filepath.Dir(catalogB), scratchRoot} {
		require.NoError(t, fs.MkdirAll(dir, 0700))
	}
	return &fixture{t: t, fs: fs}
}

func (f *fixture) engine(local string, opts ...Option) *Engine {
	return f.engineOn(f.fs, local, opts...)
}

// engineOn builds an engine working on fs, which may wrap the fixture filesystem
func (f *fixture) engineOn(fs afero.Fs, local string, opts ...Option) *Engine {
	defaults := []Option{
		Logger(zaptest.NewLogger(f.t)),
		TempDir(scratchRoot),
	}
	return New(fs, Paths{Local: local, Shared: sharedCatalog}, append(defaults, opts...)...)
}

// appending returns an engine which edits the local catalog by appending a line
func (f *fixture) appending(local, marker string, opts ...Option) *Engine {
	return f.engine(local, append(opts, Editor(editor.NewDebug(f.fs, marker, nil)))...)
}

func (f *fixture) write(path, content string) {
	require.NoError(f.t, f.fs.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(f.t, afero.WriteFile(f.fs, path, []byte(content), 0600))
}

func (f *fixture) read(path string) string {
	data, err := afero.ReadFile(f.fs, path)
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) assertUnlocked(local string) {
	locked, err := lock.New(f.fs, local).Locked()
	require.NoError(f.t, err)
	assert.False(f.t, locked, "lock marker should be released")
}

func (f *fixture) checkpoint(local string) *metafile.CheckpointRecord {
	c, err := metafile.LoadCheckpoint(f.fs, metafile.PathFor(local))
	require.NoError(f.t, err)
	return c
}

func (f *fixture) graph() *changeset.Graph {
	g, err := changeset.Build(context.Background(), changeset.NewDirSource(f.fs, sharedCatalog, nil))
	require.NoError(f.t, err)
	return g
}

func TestEndToEnd(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))
	f.assertUnlocked(catalogA)
	assert.Equal(t, "Init\n", f.read(sharedCatalog))

	require.NoError(t, f.appending(catalogA, "I am #1").Sync(ctx))
	assert.Equal(t, "Init\nI am #1\n", f.read(catalogA))
	f.assertUnlocked(catalogA)

	require.NoError(t, f.engine(catalogB).InitPull(ctx))
	assert.Equal(t, f.read(catalogA), f.read(catalogB))
	f.assertUnlocked(catalogB)

	require.NoError(t, f.appending(catalogB, "I am #2").Sync(ctx))
	assert.Equal(t, "Init\nI am #1\nI am #2\n", f.read(catalogB))

	require.NoError(t, f.appending(catalogA, "I am #1").Sync(ctx))
	assert.Equal(t, "Init\nI am #1\nI am #2\nI am #1\n", f.read(catalogA))
	f.assertUnlocked(catalogA)

	g := f.graph()
	history := g.History()
	require.Len(t, history, 4)
	assert.Equal(t, g.Leaf().Hash(), f.checkpoint(catalogA).LastPush.Hash)
	assert.Equal(t, history[2].Hash(), f.checkpoint(catalogB).LastPush.Hash)

	// the base is the original catalog, deltas are archived
	assert.Equal(t, sharedCatalog, history[0].Info().Filename)
	for _, node := range history[1:] {
		assert.Equal(t, changeset.DeltaPath(sharedCatalog, node.Hash()), node.Info().Filename)
		exists, err := afero.Exists(f.fs, node.Info().Filename)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	// B catches up without editing
	require.NoError(t, f.engine(catalogB).Sync(ctx))
	assert.Equal(t, f.read(catalogA), f.read(catalogB))
	assert.Equal(t, g.Leaf().Hash(), f.checkpoint(catalogB).LastPush.Hash)
	assert.Len(t, f.graph().History(), 4)

	// backup holds the catalog as it was before editing
	assert.Equal(t, "Init\nI am #1\nI am #2\n", f.read(catalogA+BackupExt))

	// scratch directories are cleaned up
	entries, err := afero.ReadDir(f.fs, scratchRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInitPushRecords(t *testing.T) {
	f := setupEngine(t)
	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(context.Background()))

	base, err := metafile.LoadChangeset(f.fs, metafile.PathFor(sharedCatalog))
	require.NoError(t, err)
	assert.True(t, base.Changeset.IsBase)
	assert.Nil(t, base.Parent)

	c := f.checkpoint(catalogA)
	assert.Equal(t, base.Changeset.Hash, c.Catalog.Hash)
	assert.Equal(t, base.Changeset.Hash, c.LastPush.Hash)
	assert.Equal(t, sharedCatalog, c.LastPush.Filename)
	assert.Equal(t, catalogA, c.Catalog.Filename)
}

func TestCheckpointFastForward(t *testing.T) {
	const n = 6
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))

	expected := "Init\n"
	for i := 0; i < n; i++ {
		marker := fmt.Sprintf("edit #%d", i)
		require.NoError(t, f.appending(catalogA, marker).Sync(ctx))
		expected += marker + "\n"
	}
	require.Equal(t, expected, f.read(catalogA))

	g := f.graph()
	path, err := g.Path(g.Root().Hash(), g.Leaf().Hash())
	require.NoError(t, err)
	require.Len(t, path, n)

	require.NoError(t, f.engine(catalogB).InitPull(ctx))
	assert.Equal(t, expected, f.read(catalogB))
	c := f.checkpoint(catalogB)
	assert.Equal(t, path[n-1].Hash(), c.LastPush.Hash)
	assert.Equal(t, f.checkpoint(catalogA).Catalog.Hash, c.Catalog.Hash)

	report, err := f.engine(catalogB).Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Pending)
	assert.False(t, report.Modified)
	assert.Equal(t, path[n-1].Hash(), report.Leaf.Hash)
}

func TestSyncWithoutEdit(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))
	require.NoError(t, f.engine(catalogA).Sync(ctx))

	assert.Equal(t, 1, f.graph().Len())
	assert.Equal(t, f.graph().Root().Hash(), f.checkpoint(catalogA).LastPush.Hash)
	f.assertUnlocked(catalogA)
}

func TestStatus(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))
	require.NoError(t, f.engine(catalogB).InitPull(ctx))
	require.NoError(t, f.appending(catalogA, "I am #1").Sync(ctx))
	require.NoError(t, f.appending(catalogA, "I am #1 again").Sync(ctx))
	f.write(catalogB, "Init\nlocal edit\n")

	report, err := f.engine(catalogB).Status(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Pending, 2)
	assert.True(t, report.Modified)
	assert.Equal(t, f.graph().Leaf().Hash(), report.Pending[1].Hash)

	history, err := f.engine(catalogB).History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].IsBase)
}

func TestPreconditions(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	err := f.engine(catalogA).InitPush(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrPrecondition))
	assert.Contains(t, err.Error(), catalogA)

	err = f.engine(catalogA).InitPull(ctx)
	assert.True(t, errors.Is(err, status.ErrPrecondition))
	assert.Contains(t, err.Error(), sharedCatalog)

	err = f.engine(catalogA).Sync(ctx)
	assert.True(t, errors.Is(err, status.ErrPrecondition))

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))

	// a second init must not overwrite anything
	err = f.engine(catalogA).InitPush(ctx)
	assert.True(t, errors.Is(err, status.ErrPrecondition))

	err = f.engine(catalogA).InitPull(ctx)
	assert.True(t, errors.Is(err, status.ErrPrecondition))

	// local record left over from a previous catalog
	f.write(metafile.PathFor(catalogB), "[catalog]\nhash = 00\n")
	err = f.engine(catalogB).InitPull(ctx)
	assert.True(t, errors.Is(err, status.ErrPrecondition))
	assert.Contains(t, err.Error(), metafile.PathFor(catalogB))

	f.assertUnlocked(catalogA)
	f.assertUnlocked(catalogB)
}

func TestLockContention(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))

	other := lock.New(f.fs, catalogA)
	require.NoError(t, other.TryLock())

	err := f.appending(catalogA, "I am #1").Sync(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lstatus.ErrLocked))
	assert.Equal(t, "Init\n", f.read(catalogA))

	// the lock of someone else is left alone
	locked, err := other.Locked()
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestForkedHistory(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))
	require.NoError(t, f.engine(catalogB).InitPull(ctx))

	// B publishes without seeing the publication of A, as if both ran concurrently
	require.NoError(t, f.appending(catalogA, "I am #1").Sync(ctx))
	published := metafile.PathFor(changeset.DeltaPath(sharedCatalog, f.checkpoint(catalogA).LastPush.Hash))
	require.NoError(t, f.fs.Rename(published, published+".hidden"))
	require.NoError(t, f.appending(catalogB, "I am #2").Sync(ctx))
	require.NoError(t, f.fs.Rename(published+".hidden", published))

	err := f.appending(catalogA, "I am #1 again").Sync(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cstatus.ErrBranching))
	assert.True(t, cstatus.IsInconsistent(err))
	assert.Equal(t, "Init\nI am #1\n", f.read(catalogA))
	f.assertUnlocked(catalogA)
}

func TestUnknownCheckpoint(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.write(catalogA, "Init\n")
	require.NoError(t, f.engine(catalogA).InitPush(ctx))

	c := f.checkpoint(catalogA)
	c.LastPush.Hash = "deadbeef"
	require.NoError(t, c.Flush())

	err := f.appending(catalogA, "I am #1").Sync(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCheckpoint))
	assert.Contains(t, err.Error(), "deadbeef")
	f.assertUnlocked(catalogA)
}

func TestArchivedSharedCatalog(t *testing.T) {
	const (
		dir    = "/work"
		shared = dir + "/cloud.zip"
		first  = dir + "/photos.lrcat"
		second = dir + "/photos-copy.lrcat"
	)
	f := setupEngine(t)
	ctx := context.Background()
	engine := func(local, marker string) *Engine {
		opts := []Option{Logger(zaptest.NewLogger(t)), TempDir(scratchRoot)}
		if marker != "" {
			opts = append(opts, Editor(editor.NewDebug(f.fs, marker, nil)))
		}
		return New(f.fs, Paths{Local: local, Shared: shared}, opts...)
	}

	f.write(first, "Init\n")
	require.NoError(t, engine(first, "").InitPush(ctx))
	assert.True(t, strings.HasPrefix(f.read(shared), "PK"), "the base is stored as an archive")

	require.NoError(t, engine(first, "I am #1").Sync(ctx))
	require.NoError(t, engine(second, "").InitPull(ctx))
	assert.Equal(t, "Init\nI am #1\n", f.read(second))

	require.NoError(t, engine(second, "I am #2").Sync(ctx))
	require.NoError(t, engine(first, "I am #1").Sync(ctx))
	assert.Equal(t, "Init\nI am #1\nI am #2\nI am #1\n", f.read(first))
	require.NoError(t, engine(second, "").Sync(ctx))
	assert.Equal(t, f.read(first), f.read(second))

	g, err := changeset.Build(ctx, changeset.NewDirSource(f.fs, shared, nil))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, shared, g.Root().Info().Filename)
	assert.Equal(t, g.Leaf().Hash(), f.checkpoint(first).LastPush.Hash)
	assert.Equal(t, g.Leaf().Hash(), f.checkpoint(second).LastPush.Hash)

	f.assertUnlocked(first)
	f.assertUnlocked(second)
}
