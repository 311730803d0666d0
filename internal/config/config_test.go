package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	content := "storage:\n  local_path: " + uploads + "\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: sqlite\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, time.Minute, cfg.Preview.PopoutTTL)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
	assert.Equal(t, "redis", cfg.Draft.Backend)
	assert.Equal(t, "script", cfg.Renderer.FrameworkKind)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.FilePath)

	_, err = os.Stat(cfg.Storage.LocalPath)
	assert.NoError(t, err, "local upload directory is created")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: sqlite\n")
	t.Setenv("QUIZSMITH_RENDERER_FRAMEWORK_KIND", "stylesheet")
	t.Setenv("PUBLIC_BASE_URL", "https://quiz.example.com")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "stylesheet", cfg.Renderer.FrameworkKind)
	assert.Equal(t, "https://quiz.example.com", cfg.Preview.PublicBaseURL)
}

func TestLoadConfig_RendererTheme(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
renderer:
  theme:
    --primary: "221 83% 53%"
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "221 83% 53%", cfg.Renderer.Theme["--primary"])
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "sqlite"},
			Draft:    DraftConfig{Backend: "file"},
			Renderer: RendererConfig{FrameworkKind: "stylesheet"},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"short secret in release": func(c *Config) { c.Server.Mode = "release"; c.JWT.Secret = "short" },
		"unknown driver":          func(c *Config) { c.Database.Driver = "oracle" },
		"unknown draft backend":   func(c *Config) { c.Draft.Backend = "memcached" },
		"unknown framework kind":  func(c *Config) { c.Renderer.FrameworkKind = "module" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
