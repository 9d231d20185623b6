package digest

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath(t *testing.T) {
	dir := t.TempDir()

	content := []byte("hello relink")
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	v, err := FromPath(path)
	require.NoError(t, err)

	expected := sha256.Sum256(content)
	assert.Equal(t, Value(expected), v)
	assert.Len(t, v.String(), 64)
}

func TestFromPath_LargerThanChunk(t *testing.T) {
	dir := t.TempDir()

	// several chunks plus a partial tail
	content := bytes.Repeat([]byte{0xab}, chunkSize*3+123)
	path := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	v, err := FromPath(path)
	require.NoError(t, err)

	expected := sha256.Sum256(content)
	assert.Equal(t, Value(expected), v)
}

func TestFromPath_MissingFile(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
