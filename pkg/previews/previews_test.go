package previews

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oneconcern/catsync/pkg/transfer"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	assert.Equal(t, "/home/me/Pictures/Main Smart Previews.lrdata", Dir("/home/me/Pictures/Main.lrcat"))
	assert.Equal(t, "/cloud/cat Smart Previews.lrdata", Dir("/cloud/cat"))
}

func setupPreviews(t *testing.T) (afero.Fs, *Syncer) {
	fs := afero.NewMemMapFs()
	return fs, New(fs, transfer.New(fs), nil)
}

func writeAt(t *testing.T, fs afero.Fs, path, content string, mtime time.Time) {
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0600))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestPushPull(t *testing.T) {
	const (
		local  = "/local/cat.lrcat"
		shared = "/shared/cat.lrcat"
	)
	fs, s := setupPreviews(t)
	ctx := context.Background()
	old := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(time.Hour)

	localDir, sharedDir := Dir(local), Dir(shared)
	writeAt(t, fs, filepath.Join(localDir, "0", "a.lrprev"), "a-local", recent)
	writeAt(t, fs, filepath.Join(localDir, "1", "b.lrprev"), "b-local", old)
	writeAt(t, fs, filepath.Join(sharedDir, "1", "b.lrprev"), "b-shared", recent)

	copied, err := s.Push(ctx, local, shared)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
	assert.Equal(t, "a-local", readString(t, fs, filepath.Join(sharedDir, "0", "a.lrprev")))
	// the shared preview is more recent
	assert.Equal(t, "b-shared", readString(t, fs, filepath.Join(sharedDir, "1", "b.lrprev")))

	copied, err = s.Pull(ctx, local, shared)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
	assert.Equal(t, "b-shared", readString(t, fs, filepath.Join(localDir, "1", "b.lrprev")))

	// up to date both ways
	copied, err = s.Push(ctx, local, shared)
	require.NoError(t, err)
	assert.Zero(t, copied)
	copied, err = s.Pull(ctx, local, shared)
	require.NoError(t, err)
	assert.Zero(t, copied)
}

func TestMissingPreviews(t *testing.T) {
	fs, s := setupPreviews(t)

	copied, err := s.Pull(context.Background(), "/local/cat.lrcat", "/shared/cat.lrcat")
	require.NoError(t, err)
	assert.Zero(t, copied)

	exists, err := afero.DirExists(fs, Dir("/local/cat.lrcat"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCancelled(t *testing.T) {
	fs, s := setupPreviews(t)
	writeAt(t, fs, filepath.Join(Dir("/local/cat.lrcat"), "a.lrprev"), "a", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Push(ctx, "/local/cat.lrcat", "/shared/cat.lrcat")
	require.ErrorIs(t, err, context.Canceled)
}
