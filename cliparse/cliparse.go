package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:3318"`

	// Browser origins allowed to call the API with credentials.
	// Defaults to the origin of BaseURL.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// Secrets
	SessionSecret   string `env:"SESSION_SECRET"`
	DownloadURLSalt string `env:"DOWNLOAD_URL_SALT"`

	MagicLinkTTL      time.Duration `env:"MAGIC_LINK_TTL" envDefault:"24h"`
	InviteTTL         time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"1h"`

	// Email
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"AuroraSocial <noreply@aurorasocial.com>"`
	ResendAPIKey string `env:"RESEND_API_KEY"`

	// Attachment storage
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageDir       string `env:"STORAGE_DIR" envDefault:"./data/anexos"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`

	// First municipality and gestor, created at startup when absent
	BootstrapTenant string `env:"BOOTSTRAP_TENANT"`
	BootstrapEmail  string `env:"BOOTSTRAP_GESTOR_EMAIL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// ParseFlags reads the environment, then applies CLI overrides and validates.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	fs := flag.NewFlagSet("aurorasocial", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public base URL used in emails and download links")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Session signing secret (prefer env)")
	fs.StringVar(&cfg.DownloadURLSalt, "download-salt", cfg.DownloadURLSalt, "Download URL signing salt (prefer env)")

	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "Attachment storage backend (local or s3)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, errors.New("invalid port")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return Config{}, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{base.Scheme + "://" + base.Host}
	}
	for i, o := range cfg.CORSOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return Config{}, errors.New("CORS_ORIGINS cannot be * since credentials are allowed")
		}
		cfg.CORSOrigins[i] = o
	}

	// Secrets - MUST be provided
	if len(cfg.SessionSecret) < 32 {
		return Config{}, errors.New("SESSION_SECRET required (at least 32 bytes)")
	}
	if cfg.DownloadURLSalt == "" {
		return Config{}, errors.New("DOWNLOAD_URL_SALT required")
	}

	switch cfg.StorageBackend {
	case "local":
		if cfg.StorageDir == "" {
			return Config{}, errors.New("STORAGE_DIR required for local storage")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return Config{}, errors.New("S3_BUCKET required for s3 storage")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}

	if (cfg.BootstrapTenant == "") != (cfg.BootstrapEmail == "") {
		return Config{}, errors.New("BOOTSTRAP_TENANT and BOOTSTRAP_GESTOR_EMAIL must be set together")
	}

	return cfg, nil
}
