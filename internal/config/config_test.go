package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "mongodb://127.0.0.1:27017", cfg.MongoURI)
	require.Equal(t, "newsletter", cfg.MongoDB)
	require.Equal(t, "http://localhost:3000", cfg.BaseURL)
	require.True(t, cfg.IsDev())
	require.False(t, cfg.Mail.Enable)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
env: production
mongo_uri: mongodb://db:27017
base_url: https://news.example.com
confirm_redirect_url: https://news.example.com/email-confirmation.html
allowed_origins:
  - "*.example.com"
mail:
  enable: true
  host: smtp.example.com
  port: 465
  user: mailer
  from: news@example.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.False(t, cfg.IsDev())
	require.Equal(t, "https://news.example.com", cfg.BaseURL)
	require.Equal(t, []string{"*.example.com"}, cfg.AllowedOrigins)
	require.True(t, cfg.Mail.Enable)
	require.Equal(t, 465, cfg.Mail.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("EMAIL_USER", "env-user")
	t.Setenv("EMAIL_PASS", "env-pass")
	t.Setenv("SMTP_HOST", "smtp.env.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, "mongodb://env:27017", cfg.MongoURI)
	require.Equal(t, "env-user", cfg.Mail.User)
	// configuring a transport via env enables mail
	require.True(t, cfg.Mail.Enable)
}

func TestValidateRejectsBadURL(t *testing.T) {
	t.Setenv("BASE_URL", "not a url")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
