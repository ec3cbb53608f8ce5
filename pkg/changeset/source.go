package changeset

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/oneconcern/catsync/pkg/metafile"
	"github.com/oneconcern/catsync/pkg/transfer"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Source enumerates the records describing the history of a shared catalog.
//
// A graph is built from a single call to Records: the listing is the
// snapshot the graph reflects.
type Source interface {
	Records(context.Context) ([]*metafile.ChangesetRecord, error)
}

// DirSource reads records from the directory of a shared catalog C:
//
//	C.lrcloud             the base record
//	C_<hex>.zip.lrcloud   one record per delta
type DirSource struct {
	fs      afero.Fs
	catalog string
	pattern *regexp.Regexp
	l       *zap.Logger
}

var _ Source = &DirSource{}

// NewDirSource lists the history of the shared catalog at path catalog
func NewDirSource(fs afero.Fs, catalog string, l *zap.Logger) *DirSource {
	if l == nil {
		l = zap.NewNop()
	}
	return &DirSource{
		fs:      fs,
		catalog: catalog,
		pattern: DeltaRecordPattern(catalog),
		l:       l,
	}
}

// DeltaRecordPattern matches the base names of the delta records of a shared catalog
func DeltaRecordPattern(catalog string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(filepath.Base(catalog)) +
		`_[0-9a-fA-F]+` + regexp.QuoteMeta(transfer.ArchiveExt+metafile.Ext) + `$`)
}

// DeltaPath returns the path of the delta archive with the given content hash
func DeltaPath(catalog, hash string) string {
	return catalog + "_" + hash + transfer.ArchiveExt
}

// Records loads the base record, if any, and every delta record
func (d *DirSource) Records(ctx context.Context) ([]*metafile.ChangesetRecord, error) {
	var paths []string

	base := metafile.PathFor(d.catalog)
	hasBase, err := afero.Exists(d.fs, base)
	if err != nil {
		return nil, err
	}
	if hasBase {
		paths = append(paths, base)
	}

	dir := filepath.Dir(d.catalog)
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing shared directory %s: %w", dir, err)
	}
	var deltas []string
	for _, entry := range entries {
		if entry.IsDir() || !d.pattern.MatchString(entry.Name()) {
			continue
		}
		deltas = append(deltas, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(deltas)
	paths = append(paths, deltas...)

	records := make([]*metafile.ChangesetRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := metafile.LoadChangeset(d.fs, path)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	d.l.Debug("listed changeset records", zap.String("catalog", d.catalog), zap.Int("records", len(records)))
	return records, nil
}
