package lock

import (
	"testing"

	"github.com/oneconcern/catsync/pkg/lock/status"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, "/pics/local.lrcat")
	assert.Equal(t, "/pics/local.lrcat.lock", l.Path())

	require.NoError(t, l.TryLock())
	held, err := l.Locked()
	require.NoError(t, err)
	assert.True(t, held)

	info, err := fs.Stat(l.Path())
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	// not reentrant, even from the same process
	err = l.TryLock()
	require.ErrorIs(t, err, status.ErrLocked)
	assert.Contains(t, err.Error(), l.Path())

	err = New(fs, "/pics/local.lrcat").TryLock()
	require.ErrorIs(t, err, status.ErrLocked)

	released, err := l.Unlock()
	require.NoError(t, err)
	assert.True(t, released)

	released, err = l.Unlock()
	require.NoError(t, err)
	assert.False(t, released, "double release is a no-op")

	require.NoError(t, l.TryLock())
	_, _ = l.Unlock()
}

func TestLockOsFs(t *testing.T) {
	dir := t.TempDir()
	l := New(afero.NewOsFs(), dir+"/local.lrcat")
	require.NoError(t, l.TryLock())
	require.ErrorIs(t, l.TryLock(), status.ErrLocked)
	released, err := l.Unlock()
	require.NoError(t, err)
	assert.True(t, released)
}
