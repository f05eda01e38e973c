package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Include)
	assert.Empty(t, cfg.AdditionalImportedModules)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `
include:
  - Sources/App
  - Sources/Features
additionalImportedModules:
  - SafeDI
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources/App", "Sources/Features"}, cfg.Include)
	assert.Equal(t, []string{"SafeDI"}, cfg.AdditionalImportedModules)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("include: {not a list"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}
