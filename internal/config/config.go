package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeDev       = "dev"
	AuthModeDevice    = "device"
	AuthModeTailscale = "tailscale"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Local     LocalConfig     `yaml:"local"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Images    ImagesConfig    `yaml:"images"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig points at the remote PostgreSQL store. An empty Host means
// the remote store is not configured and the server runs on local state only.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type LocalConfig struct {
	StateDir string `yaml:"state_dir"`
	Disabled bool   `yaml:"disabled"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Language    string        `yaml:"language"`
}

type ImagesConfig struct {
	S3Bucket  string `yaml:"s3_bucket"`
	S3Region  string `yaml:"s3_region"`
	PublicURL string `yaml:"public_url"`
	Prefix    string `yaml:"prefix"`
}

type CacheConfig struct {
	SizeMB int           `yaml:"size_mb"`
	TTL    time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	Mode   string `yaml:"mode"`
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type RateLimitConfig struct {
	RedisAddr      string `yaml:"redis_addr"`
	ScansPerMinute int    `yaml:"scans_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Configured reports whether a remote database was configured.
func (d DatabaseConfig) Configured() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FITSCAN_ and underscore-separated paths:
//
//	FITSCAN_SERVER_HOST, FITSCAN_SERVER_PORT,
//	FITSCAN_DB_HOST, FITSCAN_DB_PORT, FITSCAN_DB_NAME,
//	FITSCAN_DB_USER, FITSCAN_DB_PASSWORD, FITSCAN_DB_SSLMODE,
//	FITSCAN_OPENAI_API_KEY, FITSCAN_OPENAI_BASE_URL, FITSCAN_OPENAI_MODEL,
//	FITSCAN_S3_BUCKET, FITSCAN_S3_REGION,
//	FITSCAN_AUTH_MODE, FITSCAN_AUTH_API_KEY,
//	FITSCAN_REDIS_ADDR, FITSCAN_LOG_LEVEL
//
// OPENAI_API_KEY is used when FITSCAN_OPENAI_API_KEY is unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITSCAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITSCAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITSCAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITSCAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITSCAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITSCAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITSCAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITSCAN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITSCAN_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("FITSCAN_OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("FITSCAN_OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("FITSCAN_S3_BUCKET"); v != "" {
		cfg.Images.S3Bucket = v
	}
	if v := os.Getenv("FITSCAN_S3_REGION"); v != "" {
		cfg.Images.S3Region = v
	}
	if v := os.Getenv("FITSCAN_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("FITSCAN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITSCAN_REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("FITSCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Local.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Local.StateDir = filepath.Join(home, ".fitscan")
		} else {
			cfg.Local.StateDir = ".fitscan"
		}
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = 2500
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.7
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 60 * time.Second
	}
	if cfg.OpenAI.Language == "" {
		cfg.OpenAI.Language = "English"
	}
	if cfg.Images.Prefix == "" {
		cfg.Images.Prefix = "equipment"
	}
	if cfg.Cache.SizeMB == 0 {
		cfg.Cache.SizeMB = 16
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 4 * time.Hour
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeDevice
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Auth.Mode {
	case AuthModeDev, AuthModeDevice, AuthModeTailscale:
	default:
		return fmt.Errorf("auth.mode must be one of dev, device, tailscale (got %q)", c.Auth.Mode)
	}
	if c.Auth.Mode == AuthModeTailscale && !c.Tailscale.Enabled {
		return fmt.Errorf("auth.mode tailscale requires tailscale.enabled")
	}
	if c.Database.Configured() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	if c.RateLimit.ScansPerMinute > 0 && c.RateLimit.RedisAddr == "" {
		return fmt.Errorf("ratelimit.redis_addr is required when scans_per_minute is set")
	}
	if c.Images.S3Bucket != "" && c.Images.PublicURL == "" {
		return fmt.Errorf("images.public_url is required when s3_bucket is set")
	}
	return nil
}
