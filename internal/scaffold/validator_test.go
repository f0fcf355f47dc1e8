package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easel.yml")

	assert.NoError(t, CheckExisting(path))

	os.WriteFile(path, []byte("version: \"1.0\"\n"), 0644)
	err := CheckExisting(path)
	assert.ErrorIs(t, err, ErrExists)
	assert.Contains(t, err.Error(), path)
}
