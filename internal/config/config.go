// Package config provides configuration management for abacus using Viper
// for loading from files, environment variables, and command-line flags.
//
// Values come from .abacus.yml (or the file named by --config or
// ABACUS_CONFIG_FILE), overridden by ABACUS_<SECTION>_<KEY> environment
// variables and then by flags bound in cmd.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/abacus/internal/errors"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/validation"
	"github.com/spf13/viper"
)

// Environments accepted by server.environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Client ClientConfig `mapstructure:"client" yaml:"client"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
	Database       string   `mapstructure:"database" yaml:"database"`
	HistoryLimit   int      `mapstructure:"history_limit" yaml:"history_limit"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ClientConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	PrefsPath string `mapstructure:"prefs_path" yaml:"prefs_path"`
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.database", "abacus.db")
	v.SetDefault("server.history_limit", 30)

	v.SetDefault("client.base_url", "http://localhost:5000")
	v.SetDefault("client.prefs_path", "~/.config/abacus/prefs.yml")
	v.SetDefault("client.timeout", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from v, applying defaults for unset
// keys, and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "decode configuration: "+err.Error())
	}

	// Origins may arrive comma separated from the environment.
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)
	config.Server.Environment = strings.ToLower(strings.TrimSpace(config.Server.Environment))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return invalid("server", err)
	}
	if err := validateClientConfig(&config.Client); err != nil {
		return invalid("client", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return invalid("log", err)
	}
	return nil
}

func invalid(section string, err error) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration: %s config: %v", section, err))
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %q", char)
			}
		}
	}

	switch config.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, config.Environment)
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateOrigin(origin); err != nil {
			return fmt.Errorf("allowed origin %q: %w", origin, err)
		}
	}

	if err := validation.ValidatePath(config.Database); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if config.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", config.HistoryLimit)
	}

	return nil
}

func validateClientConfig(config *ClientConfig) error {
	if err := validation.ValidateURL(config.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", config.Timeout)
	}
	if err := validation.ValidatePath(config.PrefsPath); err != nil {
		return fmt.Errorf("prefs_path: %w", err)
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", config.Format)
	}
	return nil
}

func splitList(items []string) []string {
	out := []string{}
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
