package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/constructos/internal/config"
	"github.com/mtlprog/constructos/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constructos.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
port = "9090"

[database]
url = "postgres://localhost/constructos"
max_conns = 20

[project]
name = "North Campus"
end = "2028-01-31"

[project.phases]
auditorium = "Convention Hall"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/constructos", cfg.Database.URL)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(config.DefaultMinConns), cfg.Database.MinConns)

	info := cfg.ProjectInfo()
	assert.Equal(t, "North Campus", info.Name)
	assert.Equal(t, config.DefaultProjectStart, domain.FormatDate(info.Start))
	assert.Equal(t, "2028-01-31", domain.FormatDate(info.End))
	assert.Equal(t, "Convention Hall", info.PhaseName(domain.PhaseAuditorium))
	assert.Equal(t, "External Development", info.PhaseName(domain.PhaseExternal))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "port = \n"},
		{"bad date", "[project]\nstart = \"March 2025\"\n"},
		{"end before start", "[project]\nstart = \"2026-01-01\"\nend = \"2025-01-01\"\n"},
		{"unknown phase", "[project.phases]\ngarden = \"Garden\"\n"},
		{"pool sizes", "[database]\nmax_conns = 1\nmin_conns = 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
