package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

const chunkSize = 64 * 1024

// Value is a SHA-256 digest of a file's content.
type Value [sha256.Size]byte

func (v Value) String() string {
	return hex.EncodeToString(v[:])
}

// Hasher computes the content digest of the file at path. It exists as a
// type so callers can substitute an instrumented implementation in tests.
type Hasher func(path string) (Value, error)

// FromPath streams the file through SHA-256 in fixed-size chunks, so memory
// use stays bounded regardless of file size.
func FromPath(path string) (Value, error) {
	var v Value

	f, err := os.Open(path)
	if err != nil {
		return v, errors.Wrapf(err, "open file for hashing: %s", path)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return v, errors.Wrapf(err, "hash file: %s", path)
	}

	copy(v[:], h.Sum(nil))
	return v, nil
}
