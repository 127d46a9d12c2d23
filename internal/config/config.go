package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"
	DefaultFromEmail  = "Lease Manager <lease-generator@leezign.dev>"
)

type Config struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"`
	DatabaseURL string `yaml:"databaseURL"`
	DBMaxConns  int32  `yaml:"dbMaxConns"`

	Minio      MinioConfig      `yaml:"minio"`
	Generation GenerationConfig `yaml:"generation"`
	Email      EmailConfig      `yaml:"email"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`

	GenerateRateLimit   int           `yaml:"generateRateLimit"`
	ExpirySweepInterval time.Duration `yaml:"expirySweepInterval"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
	// PublicURL is the base under which stored objects are served; defaults to the endpoint.
	PublicURL    string        `yaml:"publicURL"`
	SignedURLTTL time.Duration `yaml:"signedURLTTL"`
}

type GenerationConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseURL"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type EmailConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	From    string `yaml:"from"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	JWKSURL   string `yaml:"jwksURL"`
}

// Load reads the optional YAML file at path, then applies environment overrides and defaults.
// A missing file is not an error when path is the default.
func Load(path string) (Config, error) {
	cfg := Config{}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("PORT", &cfg.Port)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_FORMAT", &cfg.LogFormat)
	envString("DATABASE_URL", &cfg.DatabaseURL)
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.DBMaxConns = int32(n)
		}
	}

	envString("MINIO_ENDPOINT", &cfg.Minio.Endpoint)
	envString("MINIO_ACCESS_KEY", &cfg.Minio.AccessKey)
	envString("MINIO_SECRET_KEY", &cfg.Minio.SecretKey)
	envString("MINIO_BUCKET", &cfg.Minio.Bucket)
	envString("MINIO_REGION", &cfg.Minio.Region)
	envString("MINIO_PUBLIC_URL", &cfg.Minio.PublicURL)
	envBool("MINIO_USE_SSL", &cfg.Minio.UseSSL)
	envDuration("MINIO_SIGNED_URL_TTL", &cfg.Minio.SignedURLTTL)

	envString("GROQ_API_KEY", &cfg.Generation.APIKey)
	envString("GROQ_BASE_URL", &cfg.Generation.BaseURL)
	envString("GROQ_MODEL", &cfg.Generation.Model)
	envDuration("GENERATION_TIMEOUT", &cfg.Generation.Timeout)

	envString("RESEND_API_KEY", &cfg.Email.APIKey)
	envString("RESEND_BASE_URL", &cfg.Email.BaseURL)
	envString("EMAIL_FROM", &cfg.Email.From)

	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("REDIS_DB", &cfg.Redis.DB)

	envString("JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("JWKS_URL", &cfg.Auth.JWKSURL)

	envInt("GENERATE_RATE_LIMIT", &cfg.GenerateRateLimit)
	envDuration("EXPIRY_SWEEP_INTERVAL", &cfg.ExpirySweepInterval)
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.DBMaxConns == 0 {
		cfg.DBMaxConns = 10
	}
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "leases"
	}
	if cfg.Minio.Region == "" {
		cfg.Minio.Region = "us-east-1"
	}
	if cfg.Minio.SignedURLTTL == 0 {
		cfg.Minio.SignedURLTTL = time.Hour
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 30 * time.Second
	}
	if cfg.Email.BaseURL == "" {
		cfg.Email.BaseURL = "https://api.resend.com"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = DefaultFromEmail
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.GenerateRateLimit == 0 {
		cfg.GenerateRateLimit = 10
	}
	if cfg.ExpirySweepInterval == 0 {
		cfg.ExpirySweepInterval = 6 * time.Hour
	}
}

// validateConfig rejects missing database and object store credentials.
// The generation and email keys are optional.
func validateConfig(cfg Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.Minio.Endpoint == "" {
		return errors.New("config: minio.endpoint is required (set in config.yaml or MINIO_ENDPOINT)")
	}
	if cfg.Minio.AccessKey == "" {
		return errors.New("config: minio.accessKey is required (set in config.yaml or MINIO_ACCESS_KEY)")
	}
	if cfg.Minio.SecretKey == "" {
		return errors.New("config: minio.secretKey is required (set in config.yaml or MINIO_SECRET_KEY)")
	}
	if cfg.Auth.JWTSecret != "" && cfg.Auth.JWKSURL != "" {
		return errors.New("config: set only one of auth.jwtSecret and auth.jwksURL")
	}
	return nil
}

func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func envDuration(key string, target *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

// ObjectBaseURL is PublicURL, or the endpoint itself when no public URL is set.
func (m MinioConfig) ObjectBaseURL() string {
	if m.PublicURL != "" {
		return m.PublicURL
	}
	scheme := "http"
	if m.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + m.Endpoint
}
