package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHash(t *testing.T) {
	t.Run("same content gives same hash", func(t *testing.T) {
		a := CalculateHash([]byte(`{"buildings":[]}`))
		b := CalculateHash([]byte(`{"buildings":[]}`))

		assert.Equal(t, a, b)
		assert.Len(t, a, 16)
	})

	t.Run("different content gives different hash", func(t *testing.T) {
		a := CalculateHash([]byte(`{"buildings":[]}`))
		b := CalculateHash([]byte(`{"buildings":[{}]}`))

		assert.NotEqual(t, a, b)
	})
}

func TestGetFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	content := []byte(`{"buildings":[]}`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Run("matches in-memory hash", func(t *testing.T) {
		sum, err := GetFileChecksum(path)

		assert.NoError(t, err)
		assert.Equal(t, CalculateHash(content), sum)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := GetFileChecksum(filepath.Join(dir, "nope.json"))

		assert.Error(t, err)
	})
}
