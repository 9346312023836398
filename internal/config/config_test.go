package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory so a developer's own
// ~/.formtree.yaml does not leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(isolate(t), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /var/lib/formtree/forms.db
log_level: debug
log_format: json
strict_directives: true
busy_timeout: 2s
lock_timeout: 1m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/formtree/forms.db", cfg.DB)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.StrictDirectives)
	assert.Equal(t, 2*time.Second, cfg.BusyTimeout)
	assert.Equal(t, time.Minute, cfg.LockTimeout)

	t.Setenv("FORMTREE_DB", "override.db")
	t.Setenv("FORMTREE_STRICT_DIRECTIVES", "false")
	t.Setenv("FORMTREE_LOCK_TIMEOUT", "250ms")
	t.Setenv("FORMTREE_LOG_LEVEL", "warn")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override.db", cfg.DB)
	assert.False(t, cfg.StrictDirectives)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoadHomeFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".formtree.yaml"), []byte("db: home.db\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "home.db", cfg.DB)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want error
	}{
		{"level", "FORMTREE_LOG_LEVEL", "loud", ErrInvalidLogLevel},
		{"format", "FORMTREE_LOG_FORMAT", "xml", ErrInvalidLogFormat},
		{"busy", "FORMTREE_BUSY_TIMEOUT", "0s", ErrInvalidTimeout},
		{"lock", "FORMTREE_LOCK_TIMEOUT", "-1s", ErrInvalidTimeout},
		{"db", "FORMTREE_DB", " ", ErrEmptyDBPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		home := isolate(t)
		_, err := Load(filepath.Join(home, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.NewLogger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.LogLevel = "error"
	cfg.LogFormat = "text"
	cfg.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())
}
