package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef")
	for _, key := range []string{"PORT", "DB_PATH", "TOKEN_TTL", "UPLOAD_DIR", "UPLOAD_URL_PREFIX", "MAX_UPLOAD_BYTES", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "data/notes.db", cfg.DBPath)
	assert.Equal(t, 10*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "data/uploads", cfg.Upload.Dir)
	assert.Equal(t, "/uploads", cfg.Upload.URLPrefix)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef")
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "90s")
	t.Setenv("UPLOAD_URL_PREFIX", "/media/")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.Auth.TokenTTL)
	assert.Equal(t, "/media", cfg.Upload.URLPrefix)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.True(t, cfg.Debug)
}

func TestLoad_EnvFile(t *testing.T) {
	// godotenv does not override variables that are already set, so make
	// sure these two are absent rather than empty.
	t.Setenv("SECRET_KEY", "")
	os.Unsetenv("SECRET_KEY")
	t.Setenv("MAIL_SENDER", "")
	os.Unsetenv("MAIL_SENDER")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SECRET_KEY=from-file-0123456789\nMAIL_SENDER=noreply@example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SECRET_KEY")
		os.Unsetenv("MAIL_SENDER")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file-0123456789", cfg.Auth.SecretKey)
	assert.Equal(t, "noreply@example.com", cfg.MailFrom)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:   "8080",
			DBPath: "notes.db",
			Auth:   AuthConfig{SecretKey: "0123456789abcdef", TokenTTL: time.Minute},
			Upload: UploadConfig{Dir: "uploads", URLPrefix: "/uploads", MaxBytes: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.Auth.SecretKey = "short" }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"relative url prefix", func(c *Config) { c.Upload.URLPrefix = "uploads" }},
		{"zero max bytes", func(c *Config) { c.Upload.MaxBytes = 0 }},
		{"admin without password", func(c *Config) { c.Auth.AdminUsername = "root" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
