package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Upload UploadConfig
	CORS   CORSConfig
	API    APIConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// UploadConfig controls how uploaded documents are accepted and staged on disk
type UploadConfig struct {
	// MaxSize is the largest accepted upload in bytes
	MaxSize int64 `mapstructure:"max_size" validate:"gt=0"`
	// TempDir is where uploads are staged while analyzers run. Empty means os.TempDir().
	TempDir string `mapstructure:"temp_dir"`
	// OrphanTTL is the age after which a staged file left behind by a crashed request is swept
	OrphanTTL time.Duration `mapstructure:"orphan_ttl" validate:"gt=0"`
}

// Validate checks that the upload configuration is usable for the given environment.
func (c *UploadConfig) Validate(environment string) error {
	if err := validate.Struct(c); err != nil {
		return fieldErrors("upload", err)
	}
	if IsProductionLike(environment) {
		dir := c.TempDir
		if dir == "" {
			dir = os.TempDir()
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("upload temp dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return errors.New("upload temp dir " + dir + " is not a directory")
		}
	}
	return nil
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// AllowsAnyOrigin reports whether the wildcard origin is configured
func (c *CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// APIConfig holds values reported by the root endpoint
type APIConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Load loads configuration from environment and config files.
// For production use, prefer LoadWithValidation which enforces required configuration.
func Load(serviceName string) (*Config, error) {
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and validates it for the current environment.
// Use this function in service main() for fail-fast behavior.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := loadConfig(serviceName)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every section that has constraints
func (c *Config) Validate() error {
	if err := validate.Struct(&c.Server); err != nil {
		return fmt.Errorf("server configuration error: %w", fieldErrors("server", err))
	}
	if err := c.Upload.Validate(c.Server.Environment); err != nil {
		return fmt.Errorf("upload configuration error: %w", err)
	}
	return nil
}

// loadConfig is the internal configuration loader
func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("FORENSICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/forensics")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)

	// Upload defaults
	v.SetDefault("upload.max_size", DefaultMaxUploadSize)
	v.SetDefault("upload.temp_dir", "")
	v.SetDefault("upload.orphan_ttl", 15*time.Minute)

	// CORS defaults: everything allowed
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("api.name", "Document Forgery Detection API")
	v.SetDefault("api.version", "1.0.0")
}

// DefaultMaxUploadSize is 50 MiB
const DefaultMaxUploadSize int64 = 50 << 20
