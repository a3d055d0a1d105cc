package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "treectl.yaml")
	require.NoError(t, os.WriteFile(file, []byte("sqlite_path: /tmp/from-file.db\ntable_prefix: file_\nsort_gap: 64\n"), 0o644))

	t.Setenv("TREE_TABLE_PREFIX", "env_")

	cfg, err := loadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.SQLitePath)
	assert.Equal(t, "env_", cfg.TablePrefix, "environment wins over the file")
	assert.Equal(t, int64(64), cfg.SortGap)
	assert.False(t, cfg.UsePostgres())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	t.Setenv("TREE_SORT_GAP", "1")
	_, err = loadConfig("")
	assert.Error(t, err)
}
