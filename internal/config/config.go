package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 3000
	defaultEnv      = "development"
	defaultMongoURI = "mongodb://127.0.0.1:27017"
	defaultMongoDB  = "newsletter"
)

// AppConfig holds runtime startup configuration loaded from YAML, with
// environment variable overrides for deployment secrets.
type AppConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"` // "development" | "production"

	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
	RedisURL string `yaml:"redis_url"`

	// BaseURL is the public base for confirmation links embedded in mail.
	BaseURL string `yaml:"base_url"`
	// ConfirmRedirectURL, when set, is where GET /confirm redirects after a
	// successful verification (a statically hosted confirmation page).
	ConfirmRedirectURL string `yaml:"confirm_redirect_url"`

	AllowedOrigins []string   `yaml:"allowed_origins"`
	Mail           MailConfig `yaml:"mail"`
}

// MailConfig configures the outbound mail transport.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	ResendKey string `yaml:"resend_key"`
}

// Load reads the YAML config file, applies environment overrides and
// defaults, and validates the result. A missing file is not an error; the
// service can run entirely from environment variables.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	setIfEnv(&cfg.Env, "APP_ENV")
	setIfEnv(&cfg.MongoURI, "MONGO_URI")
	setIfEnv(&cfg.MongoDB, "MONGO_DB")
	setIfEnv(&cfg.RedisURL, "REDIS_URL")
	setIfEnv(&cfg.BaseURL, "BASE_URL")
	setIfEnv(&cfg.ConfirmRedirectURL, "CONFIRM_REDIRECT_URL")
	setIfEnv(&cfg.Mail.Host, "SMTP_HOST")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Mail.Port = p
		}
	}
	setIfEnv(&cfg.Mail.User, "EMAIL_USER")
	setIfEnv(&cfg.Mail.Pass, "EMAIL_PASS")
	setIfEnv(&cfg.Mail.From, "MAIL_FROM")
	setIfEnv(&cfg.Mail.ResendKey, "RESEND_KEY")
	if cfg.Mail.Host != "" || cfg.Mail.ResendKey != "" {
		cfg.Mail.Enable = true
	}
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = defaultMongoURI
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = defaultMongoDB
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	for _, raw := range []string{cfg.BaseURL, cfg.ConfirmRedirectURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid url %q", raw)
		}
	}
	return nil
}
