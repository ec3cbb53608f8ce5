package metafile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oneconcern/catsync/pkg/metafile/status"

	"github.com/spf13/afero"
	ini "gopkg.in/ini.v1"
)

const (
	// Ext is appended to the path of an object to name its metadata record
	Ext = ".lrcloud"

	filenameKey = "filename"
)

// values are taken verbatim: '#' and ';' are common in catalog names and are
// neither comments when read nor quoted when written
var iniOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

// PathFor returns the path of the metadata record describing object
func PathFor(object string) string {
	return object + Ext
}

// Section is a named, ordered set of fields
type Section struct {
	name   string
	keys   []string
	values map[string]Value
}

func newSection(name string) *Section {
	return &Section{name: name, values: make(map[string]Value)}
}

// Name of the section
func (s *Section) Name() string {
	return s.name
}

// Keys in insertion order
func (s *Section) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Value of a field
func (s *Section) Value(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set a field, keeping its position if it already exists
func (s *Section) Set(key string, v Value) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// SetString sets a string field
func (s *Section) SetString(key, value string) {
	s.Set(key, String(value))
}

// SetBool sets a boolean field
func (s *Section) SetBool(key string, value bool) {
	s.Set(key, Bool(value))
}

// SetTime sets a timestamp field
func (s *Section) SetTime(key string, value time.Time) {
	s.Set(key, Time(value))
}

// String returns the textual value of a field, or the empty string when absent
func (s *Section) String(key string) string {
	v, ok := s.values[key]
	if !ok {
		return ""
	}
	return v.String()
}

// Bool returns the value of a boolean field
func (s *Section) Bool(key string) (bool, error) {
	v, ok := s.values[key]
	if !ok {
		return false, status.ErrMalformed.Wrapf("missing field %s.%s", s.name, key)
	}
	b, isBool := v.AsBool()
	if !isBool {
		return false, status.ErrMalformed.Wrapf("field %s.%s is not a boolean: %q", s.name, key, v.String())
	}
	return b, nil
}

// Time returns the value of a timestamp field
func (s *Section) Time(key string) (time.Time, error) {
	v, ok := s.values[key]
	if !ok {
		return time.Time{}, status.ErrMalformed.Wrapf("missing field %s.%s", s.name, key)
	}
	t, isTime := v.AsTime()
	if !isTime {
		return time.Time{}, status.ErrMalformed.Wrapf("field %s.%s is not a timestamp: %q", s.name, key, v.String())
	}
	return t, nil
}

// Record is a metadata record bound to its file.
//
// Records are read once, modified in memory and written back as a whole
// with Flush.
type Record struct {
	fs       afero.Fs
	path     string
	sections []*Section
	index    map[string]*Section
}

// Load a record from path. A missing file yields an empty record.
func Load(fs afero.Fs, path string) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving record path %s: %w", path, err)
	}
	r := &Record{
		fs:    fs,
		path:  abs,
		index: make(map[string]*Section),
	}

	exists, err := afero.Exists(fs, abs)
	if err != nil {
		return nil, fmt.Errorf("checking record %s: %w", abs, err)
	}
	if !exists {
		return r, nil
	}

	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", abs, err)
	}
	if err := r.parse(data); err != nil {
		return nil, status.ErrMalformed.Wrap(fmt.Errorf("%s: %w", abs, err))
	}
	return r, nil
}

func (r *Record) parse(data []byte) error {
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		s := r.Get(sec.Name())
		for _, key := range sec.Keys() {
			raw := key.Value()
			if key.Name() == filenameKey && raw != "" && !filepath.IsAbs(raw) {
				raw = filepath.Join(dir, raw)
			}
			s.Set(key.Name(), parseValue(raw))
		}
	}
	return nil
}

// Path of the record file
func (r *Record) Path() string {
	return r.path
}

// Has tells if the record holds a section
func (r *Record) Has(section string) bool {
	_, ok := r.index[section]
	return ok
}

// Get a section, creating an empty one on first access
func (r *Record) Get(section string) *Section {
	if s, ok := r.index[section]; ok {
		return s
	}
	s := newSection(section)
	r.sections = append(r.sections, s)
	r.index[section] = s
	return s
}

// Sections returns the names of all sections, in order
func (r *Record) Sections() []string {
	names := make([]string, 0, len(r.sections))
	for _, s := range r.sections {
		names = append(names, s.name)
	}
	return names
}

// Bytes returns the textual form of the record, as written by Flush.
//
// Filenames located in the directory of the record are written relative to
// it, so a record moved together with its object remains valid.
func (r *Record) Bytes() ([]byte, error) {
	f := ini.Empty(iniOptions)
	dir := filepath.Dir(r.path)
	for _, s := range r.sections {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return nil, err
		}
		for _, key := range s.keys {
			text := s.values[key].String()
			if key == filenameKey && filepath.IsAbs(text) && filepath.Dir(text) == dir {
				text = filepath.Base(text)
			}
			if _, err := sec.NewKey(key, text); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Flush writes the whole record, replacing the file.
//
// The content is staged in a temporary file in the same directory, then
// renamed over the record, so readers never observe a partial record.
func (r *Record) Flush() error {
	data, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("serializing record %s: %w", r.path, err)
	}

	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("ensuring directory for record %s: %w", r.path, err)
	}
	tmp, err := afero.TempFile(r.fs, dir, "."+filepath.Base(r.path)+".tmp-")
	if err != nil {
		return fmt.Errorf("staging record %s: %w", r.path, err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("writing record %s: %w", r.path, err)
	}
	if err = tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("writing record %s: %w", r.path, err)
	}
	if err = r.fs.Rename(tmpName, r.path); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("replacing record %s: %w", r.path, err)
	}
	return nil
}
