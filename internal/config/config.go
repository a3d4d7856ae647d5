package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Streak     StreakConfig     `yaml:"streak"`
	Completion CompletionConfig `yaml:"completion"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Rebuild    RebuildConfig    `yaml:"rebuild"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

// StorageConfig selects the datastore implementation
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// RedisConfig holds leaderboard cache configuration
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TopTTL   time.Duration `yaml:"top_ttl"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret  string `yaml:"secret"`
	TTLDays int    `yaml:"ttl_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StreakConfig holds the calendar used for streak days
type StreakConfig struct {
	Timezone string `yaml:"timezone"`
}

// CompletionConfig controls retries of conflicting session completions
type CompletionConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ArchiveConfig holds leaderboard snapshot archive configuration
type ArchiveConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	Region    string        `yaml:"region"`
	Bucket    string        `yaml:"bucket"`
	Prefix    string        `yaml:"prefix"`
	Endpoint  string        `yaml:"endpoint"` // custom endpoint for S3-compatible storage
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
}

// RebuildConfig holds the periodic full leaderboard rebuild configuration
type RebuildConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and defaults, and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD":     &c.Database.Password,
		"JWT_SECRET":            &c.JWT.Secret,
		"REDIS_PASSWORD":        &c.Redis.Password,
		"AWS_ACCESS_KEY_ID":     &c.Archive.AccessKey,
		"AWS_SECRET_ACCESS_KEY": &c.Archive.SecretKey,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	if c.Redis.TopTTL == 0 {
		c.Redis.TopTTL = 30 * time.Second
	}
	if c.JWT.TTLDays == 0 {
		c.JWT.TTLDays = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Streak.Timezone == "" {
		c.Streak.Timezone = "UTC"
	}
	if c.Completion.MaxRetries == 0 {
		c.Completion.MaxRetries = 3
	}
	if c.Completion.RetryBackoff == 0 {
		c.Completion.RetryBackoff = 50 * time.Millisecond
	}
	if c.Archive.Interval == 0 {
		c.Archive.Interval = 24 * time.Hour
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = "leaderboard"
	}
	if c.Rebuild.Interval == 0 {
		c.Rebuild.Interval = time.Hour
	}
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Storage.Driver != DriverPostgres && c.Storage.Driver != DriverMemory {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := time.LoadLocation(c.Streak.Timezone); err != nil {
		return fmt.Errorf("invalid streak.timezone: %w", err)
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archive is enabled")
	}
	return nil
}

// Location returns the streak calendar location
func (c *StreakConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
