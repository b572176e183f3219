package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	AuthHMACSecret string        `yaml:"auth_hmac_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AdminUser      string        `yaml:"admin_user"`
	AdminPassHash  string        `yaml:"admin_pass_hash"` // bcrypt; wins over AdminPassword
	AdminPassword  string        `yaml:"admin_password"`

	CORSOrigins []string `yaml:"cors_origins"`

	DefaultLang string `yaml:"default_lang"`

	// Catalog cache; disabled when RedisAddr is empty.
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`

	// Contact form notifications; log-only when either is empty.
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

func defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		DBDriver:        "sqlite",
		BlobBasePath:    "./data",
		AuthHMACSecret:  "unicover-dev-secret",
		TokenTTL:        8 * time.Hour,
		AdminUser:       "admin",
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		DefaultLang:     "ru",
		CatalogCacheTTL: 5 * time.Minute,
	}
}

// FromEnv builds the config from defaults, then CONFIG_FILE (yaml) if set,
// then environment variables. A .env file in the working directory is loaded
// first and never overrides variables already set.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTPAddr = envOr("HTTP_ADDR", cfg.HTTPAddr)
	cfg.PublicURL = strings.TrimSuffix(envOr("PUBLIC_URL", cfg.PublicURL), "/")
	cfg.DBDriver = envOr("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOr("DB_DSN", cfg.DBDSN)
	cfg.BlobBasePath = envOr("BLOB_BASE_PATH", cfg.BlobBasePath)
	cfg.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", cfg.AuthHMACSecret)
	cfg.TokenTTL = envDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.AdminUser = envOr("ADMIN_USER", cfg.AdminUser)
	cfg.AdminPassHash = envOr("ADMIN_PASS_HASH", cfg.AdminPassHash)
	cfg.AdminPassword = envOr("ADMIN_PASSWORD", cfg.AdminPassword)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = csv(v)
	}
	cfg.DefaultLang = envOr("DEFAULT_LANG", cfg.DefaultLang)
	cfg.RedisAddr = envOr("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envOr("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = envInt("REDIS_DB", cfg.RedisDB)
	cfg.CatalogCacheTTL = envDuration("CATALOG_CACHE_TTL", cfg.CatalogCacheTTL)
	cfg.TelegramToken = envOr("TELEGRAM_TOKEN", cfg.TelegramToken)
	cfg.TelegramChatID = int64(envInt("TELEGRAM_CHAT_ID", int(cfg.TelegramChatID)))

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
