package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Limits   LimitsConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig points at the Ed25519 keypair. Inline PEM wins over a path.
type AuthConfig struct {
	SigningKeyPath   string
	VerifyingKeyPath string
	SigningKeyPEM    string
	VerifyingKeyPEM  string
}

type StorageConfig struct {
	Backend     string // "local" or "s3"
	BaseDir     string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type LimitsConfig struct {
	MaxUploadBytes int64
	AuthRPS        float64
	AuthBurst      int
	UsersCacheTTL  time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 6688)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 32)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	authBurst, err := getEnvInt("AUTH_RATE_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_BURST: %w", err)
	}

	authRPS, err := strconv.ParseFloat(getEnv("AUTH_RATE_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_RPS: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("USERS_CACHE_TTL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid USERS_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			SigningKeyPath:   getEnv("AUTH_SIGNING_KEY_PATH", ""),
			VerifyingKeyPath: getEnv("AUTH_VERIFYING_KEY_PATH", ""),
			SigningKeyPEM:    getEnv("AUTH_SIGNING_KEY", ""),
			VerifyingKeyPEM:  getEnv("AUTH_VERIFYING_KEY", ""),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			BaseDir:     getEnv("STORAGE_BASE_DIR", "/tmp/chat_server"),
			S3Bucket:    getEnv("S3_BUCKET", "chat-files"),
			S3Region:    getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Limits: LimitsConfig{
			MaxUploadBytes: int64(maxUploadMB) << 20,
			AuthRPS:        authRPS,
			AuthBurst:      authBurst,
			UsersCacheTTL:  cacheTTL,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.SigningKeyPEM == "" && c.Auth.SigningKeyPath == "" {
		missing = append(missing, "AUTH_SIGNING_KEY_PATH")
	}
	if c.Auth.VerifyingKeyPEM == "" && c.Auth.VerifyingKeyPath == "" {
		missing = append(missing, "AUTH_VERIFYING_KEY_PATH")
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.BaseDir == "" {
			missing = append(missing, "STORAGE_BASE_DIR")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SigningKey returns the signing key PEM, reading the file when no inline
// value is set.
func (a AuthConfig) SigningKey() ([]byte, error) {
	return pemSource(a.SigningKeyPEM, a.SigningKeyPath)
}

func (a AuthConfig) VerifyingKey() ([]byte, error) {
	return pemSource(a.VerifyingKeyPEM, a.VerifyingKeyPath)
}

func pemSource(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
