package engine

import (
	"github.com/oneconcern/catsync/pkg/metafile"
)

// BackupExt is appended to the local catalog to name its pre-edit snapshot
const BackupExt = ".backup"

// Paths locates the local catalog and the base catalog of the shared history
type Paths struct {
	Local  string
	Shared string
}

// LocalRecord is the checkpoint record of the local catalog
func (p Paths) LocalRecord() string {
	return metafile.PathFor(p.Local)
}

// SharedRecord is the record of the base changeset
func (p Paths) SharedRecord() string {
	return metafile.PathFor(p.Shared)
}

// Backup is the most recent snapshot of the local catalog taken before editing
func (p Paths) Backup() string {
	return p.Local + BackupExt
}
