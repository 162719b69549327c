package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "DURIANTRACK"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "duriantrack.db"
	defaultLogLevel      = "info"
	defaultTokenTTL      = 8 * time.Hour
	defaultStorageBucket = "duriantrack-photos"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	AdminUsername string
	AdminPassword string
	TokenTTL      time.Duration
	RedisURL      string
	Storage       StorageConfig
}

// StorageConfig describes the optional object-storage bucket for photos.
// The service runs without it; photo uploads are then rejected.
type StorageConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether a bucket endpoint was configured.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.admin_username", "admin")
	configViper.SetDefault("auth.token_ttl_minutes", int(defaultTokenTTL.Minutes()))
	configViper.SetDefault("storage.bucket", defaultStorageBucket)
	configViper.SetDefault("storage.use_ssl", true)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		AdminUsername: configViper.GetString("auth.admin_username"),
		AdminPassword: configViper.GetString("auth.admin_password"),
		TokenTTL:      time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		RedisURL:      configViper.GetString("redis.url"),
		Storage: StorageConfig{
			Endpoint:  configViper.GetString("storage.endpoint"),
			Bucket:    configViper.GetString("storage.bucket"),
			AccessKey: configViper.GetString("storage.access_key"),
			SecretKey: configViper.GetString("storage.secret_key"),
			UseSSL:    configViper.GetBool("storage.use_ssl"),
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.AdminPassword) == "" {
		return fmt.Errorf("auth.admin_password is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if c.Storage.Enabled() {
		if strings.TrimSpace(c.Storage.AccessKey) == "" || strings.TrimSpace(c.Storage.SecretKey) == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when storage.endpoint is set")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("storage.bucket is required when storage.endpoint is set")
		}
	}
	return nil
}
