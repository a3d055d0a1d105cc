package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "DATABASE_URL", "TABLE_PREFIX", "SORT_GAP", "CORS_ORIGINS", "DEBUG", "JWKS_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, int64(DefaultSortGap), cfg.SortGap)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.UsePostgres())
	assert.True(t, cfg.Debug)
}

func TestLoad_Environment(t *testing.T) {
	tests := []struct {
		env        string
		override   string
		wantPrefix string
		wantDebug  bool
	}{
		{"prod", "", "prod_", false},
		{"test", "", "test_", true},
		{"staging", "", "dev_", true},
		{"prod", "custom_", "custom_", false},
	}
	for _, tt := range tests {
		t.Run(tt.env+tt.override, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", tt.override)
			t.Setenv("DEBUG", "")

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, cfg.TablePrefix)
			assert.Equal(t, tt.wantDebug, cfg.Debug)
		})
	}
}

func TestLoad_Values(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tree")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SORT_GAP", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, int64(16), cfg.SortGap)
}

func TestLoad_InvalidSortGap(t *testing.T) {
	for _, gap := range []string{"1", "abc", "-5"} {
		t.Setenv("SORT_GAP", gap)
		_, err := Load()
		assert.Error(t, err, gap)
	}
}

func TestSetupLogFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2020-01-01T00-00-00.000.log", "server-2020-01-02T00-00-00.000.log", "other.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	f, err := SetupLogFile(dir, "server", 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "server-2020-01-01T00-00-00.000.log"))
	assert.FileExists(t, filepath.Join(dir, "other.log"))
}
