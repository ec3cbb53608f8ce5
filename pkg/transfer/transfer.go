// Copyright © 2018 One Concern

// Package transfer copies catalogs, deltas and records between local and
// shared storage, compressing or decompressing them when the extension of
// one side asks for a zip archive.
package transfer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/catsync/pkg/transfer/status"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ArchiveExt is the extension of compressed artifacts
const ArchiveExt = ".zip"

// IsArchive tells if a path designates a zip archive
func IsArchive(path string) bool {
	return strings.HasSuffix(path, ArchiveExt)
}

// Transfer moves artifacts around a file system
type Transfer struct {
	fs      afero.Fs
	l       *zap.Logger
	tempDir string
}

// New transfer on fs
func New(fs afero.Fs, opts ...Option) *Transfer {
	t := &Transfer{
		fs: fs,
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(t)
	}
	return t
}

// Copy src to dst. Whenever exactly one side is a zip archive, the
// content is compressed or extracted on the fly:
//   - archive to archive, plain to plain: byte copy, keeping the modification time
//   - archive to plain: the single entry of the archive replaces dst
//   - plain to archive: dst is a new archive holding src under its base name
func (t *Transfer) Copy(src, dst string) error {
	t.l.Info("copy", zap.String("src", src), zap.String("dst", dst))

	switch srcZip, dstZip := IsArchive(src), IsArchive(dst); {
	case srcZip && !dstZip:
		return t.extract(src, dst)
	case dstZip && !srcZip:
		return t.compress(src, dst)
	default:
		return t.copyFile(src, dst)
	}
}

// Move src to dst, replacing dst. Moves across devices fall back to a copy.
func (t *Transfer) Move(src, dst string) error {
	t.l.Debug("move", zap.String("src", src), zap.String("dst", dst))
	t.Remove(dst)
	if err := t.fs.Rename(src, dst); err == nil {
		return nil
	}
	if err := t.copyFile(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	t.Remove(src)
	return nil
}

// Remove a file, or a directory and all its content. Absence is not an
// error, and failures are only logged: removal is always best-effort.
func (t *Transfer) Remove(path string) {
	info, err := t.fs.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.l.Warn("cannot stat file to remove", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if info.IsDir() {
		err = t.fs.RemoveAll(path)
	} else {
		err = t.fs.Remove(path)
	}
	if err != nil && !os.IsNotExist(err) {
		t.l.Warn("cannot remove file", zap.String("path", path), zap.Error(err))
	}
}

// TempDir creates a fresh temporary directory, to be disposed of with Remove
func (t *Transfer) TempDir(prefix string) (string, error) {
	if t.tempDir != "" {
		if err := t.fs.MkdirAll(t.tempDir, 0700); err != nil {
			return "", err
		}
	}
	return afero.TempDir(t.fs, t.tempDir, prefix)
}

func (t *Transfer) copyFile(src, dst string) error {
	in, err := t.fs.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	if err = t.writeStaged(dst, info.Mode().Perm(), func(w io.Writer) error {
		_, erc := io.Copy(w, in)
		return erc
	}); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err = t.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserving modification time of %s: %w", dst, err)
	}
	return nil
}

func (t *Transfer) compress(src, dst string) error {
	in, err := t.fs.Open(src)
	if err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate

	err = t.writeStaged(dst, 0644, func(w io.Writer) error {
		archive := zip.NewWriter(w)
		entry, erc := archive.CreateHeader(header)
		if erc != nil {
			return erc
		}
		if _, erc = io.Copy(entry, in); erc != nil {
			return erc
		}
		return archive.Close()
	})
	if err != nil {
		return fmt.Errorf("compress %s to %s: %w", src, dst, err)
	}
	return nil
}

func (t *Transfer) extract(src, dst string) error {
	in, err := t.fs.Open(src)
	if err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	archive, err := zip.NewReader(in, info.Size())
	if err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	if len(archive.File) != 1 {
		return status.ErrArchiveEntries.Wrapf("%s holds %d entries", src, len(archive.File))
	}
	entry := archive.File[0]

	tmpDir, err := t.TempDir("catsync-extract-")
	if err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	defer t.Remove(tmpDir)

	// only the base name is trusted, entries never escape the temporary directory
	tmpFile := filepath.Join(tmpDir, filepath.Base(filepath.FromSlash(entry.Name)))
	if err = t.extractEntry(entry, tmpFile); err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	return t.Move(tmpFile, dst)
}

func (t *Transfer) extractEntry(entry *zip.File, target string) error {
	rdr, err := entry.Open()
	if err != nil {
		return err
	}
	defer rdr.Close()

	out, err := t.fs.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, rdr); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if entry.Modified.IsZero() {
		return nil
	}
	return t.fs.Chtimes(target, entry.Modified, entry.Modified)
}

// writeStaged writes dst through a temporary file of the same directory,
// renamed into place once complete.
func (t *Transfer) writeStaged(dst string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(dst)
	tmp, err := afero.TempFile(t.fs, dir, "."+filepath.Base(dst)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err = write(tmp); err != nil {
		_ = tmp.Close()
		t.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		t.Remove(tmpName)
		return err
	}
	if err = t.fs.Chmod(tmpName, perm); err != nil {
		t.Remove(tmpName)
		return err
	}
	t.Remove(dst)
	if err = t.fs.Rename(tmpName, dst); err != nil {
		t.Remove(tmpName)
		return err
	}
	return nil
}
