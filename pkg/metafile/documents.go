package metafile

import (
	"time"

	"github.com/oneconcern/catsync/pkg/metafile/status"

	"github.com/spf13/afero"
)

// Section names
const (
	SectionChangeset = "changeset"
	SectionParent    = "parent"
	SectionCatalog   = "catalog"
	SectionLastPush  = "last_push"
)

const (
	keyIsBase          = "is_base"
	keyHash            = "hash"
	keyModificationUTC = "modification_utc"
)

// ChangesetInfo describes a node of the shared history: either the base
// catalog or a delta archive.
type ChangesetInfo struct {
	IsBase          bool
	Hash            string
	ModificationUTC time.Time
	Filename        string
}

// ParentInfo mirrors the changeset fields of the node a delta applies to
type ParentInfo ChangesetInfo

// CatalogInfo describes the current local catalog
type CatalogInfo struct {
	Hash            string
	ModificationUTC time.Time
	Filename        string
}

// LastPushInfo identifies the changeset the local catalog was last synchronized with
type LastPushInfo struct {
	Filename        string
	Hash            string
	ModificationUTC time.Time
}

func (c ChangesetInfo) encode(s *Section) {
	s.SetBool(keyIsBase, c.IsBase)
	s.SetString(keyHash, c.Hash)
	s.SetTime(keyModificationUTC, c.ModificationUTC)
	s.SetString(filenameKey, c.Filename)
}

func decodeChangeset(s *Section) (ChangesetInfo, error) {
	var (
		c   ChangesetInfo
		err error
	)
	if c.IsBase, err = s.Bool(keyIsBase); err != nil {
		return c, err
	}
	if c.Hash = s.String(keyHash); c.Hash == "" {
		return c, status.ErrMalformed.Wrapf("missing field %s.%s", s.Name(), keyHash)
	}
	if c.ModificationUTC, err = s.Time(keyModificationUTC); err != nil {
		return c, err
	}
	c.Filename = s.String(filenameKey)
	return c, nil
}

func (c CatalogInfo) encode(s *Section) {
	s.SetString(keyHash, c.Hash)
	s.SetTime(keyModificationUTC, c.ModificationUTC)
	s.SetString(filenameKey, c.Filename)
}

func decodeCatalog(s *Section) CatalogInfo {
	t, _ := s.Time(keyModificationUTC)
	return CatalogInfo{
		Hash:            s.String(keyHash),
		ModificationUTC: t,
		Filename:        s.String(filenameKey),
	}
}

func (l LastPushInfo) encode(s *Section) {
	s.SetString(filenameKey, l.Filename)
	s.SetString(keyHash, l.Hash)
	s.SetTime(keyModificationUTC, l.ModificationUTC)
}

func decodeLastPush(s *Section) LastPushInfo {
	t, _ := s.Time(keyModificationUTC)
	return LastPushInfo{
		Filename:        s.String(filenameKey),
		Hash:            s.String(keyHash),
		ModificationUTC: t,
	}
}

// ChangesetRecord is the record of a published base catalog or delta
type ChangesetRecord struct {
	Changeset ChangesetInfo

	// Parent is nil for the base
	Parent *ParentInfo

	rec *Record
}

// NewChangeset prepares a new, empty changeset record at path
func NewChangeset(fs afero.Fs, path string) (*ChangesetRecord, error) {
	rec, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	return &ChangesetRecord{rec: rec}, nil
}

// LoadChangeset reads the record of a published changeset
func LoadChangeset(fs afero.Fs, path string) (*ChangesetRecord, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, status.ErrNotExists.Wrapf("%s", path)
	}
	rec, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	if !rec.Has(SectionChangeset) {
		return nil, status.ErrMalformed.Wrapf("%s: no [%s] section", rec.Path(), SectionChangeset)
	}

	c := &ChangesetRecord{rec: rec}
	if c.Changeset, err = decodeChangeset(rec.Get(SectionChangeset)); err != nil {
		return nil, status.ErrMalformed.Wrapf("%s: %v", rec.Path(), err)
	}
	if c.Changeset.IsBase {
		return c, nil
	}

	if !rec.Has(SectionParent) {
		return nil, status.ErrMalformed.Wrapf("%s: delta without [%s] section", rec.Path(), SectionParent)
	}
	parent, err := decodeChangeset(rec.Get(SectionParent))
	if err != nil {
		return nil, status.ErrMalformed.Wrapf("%s: %v", rec.Path(), err)
	}
	p := ParentInfo(parent)
	c.Parent = &p
	return c, nil
}

// Path of the record file
func (c *ChangesetRecord) Path() string {
	return c.rec.Path()
}

// Flush writes the record
func (c *ChangesetRecord) Flush() error {
	c.Changeset.encode(c.rec.Get(SectionChangeset))
	if c.Parent != nil {
		ChangesetInfo(*c.Parent).encode(c.rec.Get(SectionParent))
	}
	return c.rec.Flush()
}

// CheckpointRecord is the record of the local catalog
type CheckpointRecord struct {
	Catalog  CatalogInfo
	LastPush LastPushInfo

	rec *Record
}

// LoadCheckpoint reads the local checkpoint record. A missing record yields
// a zero checkpoint.
func LoadCheckpoint(fs afero.Fs, path string) (*CheckpointRecord, error) {
	rec, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	c := &CheckpointRecord{rec: rec}
	if rec.Has(SectionCatalog) {
		c.Catalog = decodeCatalog(rec.Get(SectionCatalog))
	}
	if rec.Has(SectionLastPush) {
		c.LastPush = decodeLastPush(rec.Get(SectionLastPush))
	}
	return c, nil
}

// Path of the record file
func (c *CheckpointRecord) Path() string {
	return c.rec.Path()
}

// Flush writes the record
func (c *CheckpointRecord) Flush() error {
	c.Catalog.encode(c.rec.Get(SectionCatalog))
	c.LastPush.encode(c.rec.Get(SectionLastPush))
	return c.rec.Flush()
}
