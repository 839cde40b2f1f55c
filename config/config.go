package config

import (
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// ENV_PREFIX starts environment variables overriding configuration, for instance EGONET_STORAGE_BACKEND
const ENV_PREFIX = "EGONET"

// Backends are the accepted values for storage.backend
var Backends = []string{"memory", "bolt", "badger", "postgres"}

// StorageConfig chooses the row store
type StorageConfig struct {
	// Backend is memory, bolt, badger or postgres
	Backend string `mapstructure:"backend"`
	// Path is the file (bolt) or directory (badger) of the data
	Path string `mapstructure:"path"`
	// URL is the postgres connection string
	URL string `mapstructure:"url"`
}

// ServerConfig is the http server configuration
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// AuthConfig is the token configuration. No secret means no authentication
type AuthConfig struct {
	Secret        string            `mapstructure:"secret"`
	Users         map[string]string `mapstructure:"users"`
	TokenDuration time.Duration     `mapstructure:"token_duration"`
}

// LogConfig is the logger configuration
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// Config is the whole configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.url", "")

	v.SetDefault("server.address", ":8080")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_duration", 24*time.Hour)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// NewViper returns a viper with defaults and environment variables.
// If path is not empty, the configuration file is read too
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	return v, nil
}

// LoadWithViper loads configuration using a provided viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	return &config, config.Validate()
}

// Load reads defaults, then the file at path if any, then environment variables
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}

	return LoadWithViper(v)
}

// Validate checks values that cannot work together
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Backends, c.Storage.Backend):
		return errors.Newf("invalid storage backend %q, expecting one of %s", c.Storage.Backend, strings.Join(Backends, ", "))
	case (c.Storage.Backend == "bolt" || c.Storage.Backend == "badger") && c.Storage.Path == "":
		return errors.Newf("storage backend %s needs a path", c.Storage.Backend)
	case c.Storage.Backend == "postgres" && c.Storage.URL == "":
		return errors.New("storage backend postgres needs an url")
	case !strings.Contains(c.Server.Address, ":"):
		return errors.Newf("invalid address %s: it should be host:port or :port", c.Server.Address)
	case c.Auth.Secret != "" && c.Auth.TokenDuration <= 0:
		return errors.New("token duration should be positive")
	}

	return nil
}

// AuthEnabled returns true if requests should provide a token
func (c *Config) AuthEnabled() bool {
	return c.Auth.Secret != ""
}
