package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:        AppConfig{Environment: "development"},
		Logger:     LoggerConfig{Level: "info"},
		Catalog:    CatalogConfig{DataPath: "/data"},
		Similarity: SimilarityConfig{Backend: "file", ChunkSize: 500, Threshold: 0.05},
		Recommend:  RecommendConfig{DefaultLanguages: []string{"en"}},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Catalog.DataPath = "" }},
		{"unknown backend", func(c *Config) { c.Similarity.Backend = "redis" }},
		{"tiny chunk", func(c *Config) { c.Similarity.ChunkSize = 1 }},
		{"threshold above one", func(c *Config) { c.Similarity.Threshold = 1.5 }},
		{"negative genre score", func(c *Config) { c.Genre.MinScore = -0.1 }},
		{"no languages", func(c *Config) { c.Recommend.DefaultLanguages = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("~/folio", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "folio"), got)

	got, err = expandPath("/var/lib/folio/../folio", "")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/folio", got)

	got, err = expandPath("relative", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("FOLIO_TEST_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "FOLIO_TEST_KEY", "default"))
	assert.Equal(t, "env-value", getConfigValue("", "FOLIO_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "FOLIO_TEST_MISSING", "default"))
}

func TestTypedConfigValues(t *testing.T) {
	t.Setenv("FOLIO_BOOL", "YES")
	t.Setenv("FOLIO_INT", "not-a-number")
	t.Setenv("FOLIO_FLOAT", "0.25")
	t.Setenv("FOLIO_LIST", " en, fr ,,de")

	assert.True(t, getBoolConfigValue("", "FOLIO_BOOL", false))
	assert.Equal(t, 7, getIntConfigValue("", "FOLIO_INT", 7))
	assert.InDelta(t, 0.25, getFloatConfigValue("", "FOLIO_FLOAT", 0), 1e-9)
	assert.Equal(t, []string{"en", "fr", "de"}, getListConfigValue("", "FOLIO_LIST", nil))
	assert.Equal(t, []string{"en"}, getListConfigValue("", "FOLIO_LIST_MISSING", []string{"en"}))
}

func TestLoadConfig_EnvFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "LOG_LEVEL=debug\nSIMILARITY_BACKEND=sqlite\nDEFAULT_LANGUAGES=en,es\nSOURCE_TIMEOUT=3s\nGENRE_MIN_SCORE=0.5\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv never overrides set variables; t.Setenv restores them afterwards.
	for _, key := range []string{"LOG_LEVEL", "SIMILARITY_BACKEND", "DEFAULT_LANGUAGES", "SOURCE_TIMEOUT", "GENRE_MIN_SCORE"} {
		t.Setenv(key, "")
		os.Unsetenv(key) //nolint:errcheck // Test setup
	}

	cfg, err := LoadConfig([]string{
		"-env-file", envFile,
		"-data-path", dir,
		"-port", "9090",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "sqlite", cfg.Similarity.Backend)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, dir, cfg.Catalog.DataPath)
	assert.Equal(t, filepath.Join(dir, "similarity"), cfg.Similarity.Dir)
	assert.Equal(t, filepath.Join(dir, "catalog"), cfg.Catalog.StorePath())
	assert.Equal(t, []string{"en", "es"}, cfg.Recommend.DefaultLanguages)
	assert.Equal(t, 3*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, 500, cfg.Similarity.ChunkSize)
	assert.InDelta(t, 0.5, cfg.Genre.MinScore, 1e-12)
	assert.True(t, cfg.Sources.Gutenberg.Enabled)
	assert.False(t, cfg.Sources.BestBooks.Enabled, "best books has no default endpoint")
}

func TestLoadConfig_MissingEnvFileIsFine(t *testing.T) {
	cfg, err := LoadConfig([]string{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-data-path", t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
	assert.Zero(t, cfg.Genre.MinScore, "any word overlap reaches the taxonomy by default")
}

func TestLoadConfig_BadDuration(t *testing.T) {
	_, err := LoadConfig([]string{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-data-path", t.TempDir(),
		"-source-timeout", "soon",
	})
	assert.Error(t, err)
}
