package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"PAGEBUILDER_CONFIG", "PAGEBUILDER_DATA_DIR", "PAGEBUILDER_DB_DRIVER", "PAGEBUILDER_DB_DSN",
		"PAGEBUILDER_TEMPLATES_DIR", "PAGEBUILDER_AUTOSAVE_DELAY", "PAGEBUILDER_MAX_REVISIONS",
		"PAGEBUILDER_PRUNE_SCHEDULE", "PAGEBUILDER_LOG_LEVEL", "PAGEBUILDER_WATCH_TEMPLATES",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PAGEBUILDER_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, filepath.Join(dir, "pagebuilder.db"), cfg.DBDSN)
	assert.Equal(t, filepath.Join(dir, "templates"), cfg.TemplatesDir)
	assert.Equal(t, 30*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 50, cfg.MaxRevisions)
	assert.Equal(t, "@hourly", cfg.PruneSchedule)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "pagebuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/pages
db_driver: postgres
db_dsn: postgres://localhost/pages
autosave_delay: 5s
max_revisions: 10
log_level: debug
`), 0644))
	t.Setenv("PAGEBUILDER_CONFIG", path)
	t.Setenv("PAGEBUILDER_MAX_REVISIONS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/pages", cfg.DBDSN)
	assert.Equal(t, 5*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 3, cfg.MaxRevisions, "env wins over file")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, filepath.Join("/srv/pages", "templates"), cfg.TemplatesDir)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGEBUILDER_AUTOSAVE_DELAY=45s\n"), 0644))
	// godotenv never overrides variables that are already set, so clear it
	require.NoError(t, os.Unsetenv("PAGEBUILDER_AUTOSAVE_DELAY"))
	t.Cleanup(func() { os.Unsetenv("PAGEBUILDER_AUTOSAVE_DELAY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.AutosaveDelay)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad delay", "PAGEBUILDER_AUTOSAVE_DELAY", "soon"},
		{"bad revisions", "PAGEBUILDER_MAX_REVISIONS", "many"},
		{"bad driver", "PAGEBUILDER_DB_DRIVER", "oracle"},
		{"postgres without dsn", "PAGEBUILDER_DB_DRIVER", "postgres"},
		{"bad watch flag", "PAGEBUILDER_WATCH_TEMPLATES", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0644))
	t.Setenv("PAGEBUILDER_CONFIG", path)
	_, err := Load()
	assert.Error(t, err)
}

func TestSlogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "loud"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warn"}.SlogLevel())
}

func TestLoad_PruneOff(t *testing.T) {
	isolate(t)
	t.Setenv("PAGEBUILDER_PRUNE_SCHEDULE", "off")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.PruneSchedule)
}
