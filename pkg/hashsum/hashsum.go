// Package hashsum computes the content hashes which identify catalogs and
// changesets.
package hashsum

import (
	"crypto/sha1" // #nosec: legacy shared stores were published with sha1 keys
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/spf13/afero"
)

// Algorithm names a supported content hash
type Algorithm string

const (
	// Blake2b is blake2b-256, the default
	Blake2b Algorithm = "blake2b"

	// SHA1 produces the 40 hex digit keys found in stores created by earlier tools
	SHA1 Algorithm = "sha1"
)

// Parse an algorithm name. The empty string selects the default.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", Blake2b:
		return Blake2b, nil
	case SHA1:
		return SHA1, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", name)
	}
}

func (a Algorithm) hasher() hash.Hash {
	if a == SHA1 {
		return sha1.New() // #nosec
	}
	return blake2b.New256()
}

// Reader returns the hex digest of everything read from r
func (a Algorithm) Reader(r io.Reader) (string, error) {
	h := a.hasher()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the hex digest of the full content of a file
func (a Algorithm) File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	sum, err := a.Reader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}
