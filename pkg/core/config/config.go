package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
)

// EnvVar names the environment variable holding the config file path
const EnvVar = "BEXPR_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General   GeneralConfig   `toml:"general" yaml:"general"`
	Evaluator EvaluatorConfig `toml:"evaluator" yaml:"evaluator"`
	History   HistoryConfig   `toml:"history" yaml:"history"`
	GRPC      GRPCConfig      `toml:"grpc" yaml:"grpc"`
	Gateway   GatewayConfig   `toml:"gateway" yaml:"gateway"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name" yaml:"name"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// EvaluatorConfig holds evaluator limits
type EvaluatorConfig struct {
	MaxDepth  int      `toml:"max_depth" yaml:"max_depth"`
	CacheSize int      `toml:"cache_size" yaml:"cache_size"` // tokenize responses kept by the server
	CacheTTL  Duration `toml:"cache_ttl" yaml:"cache_ttl"`
}

// HistoryConfig holds evaluation history settings
type HistoryConfig struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	Path          string `toml:"path" yaml:"path"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// GRPCConfig holds the gRPC evaluator service configuration
type GRPCConfig struct {
	Host              string   `toml:"host" yaml:"host"`
	Port              int      `toml:"port" yaml:"port"`
	ConnectionTimeout Duration `toml:"connection_timeout" yaml:"connection_timeout"`
	RequestTimeout    Duration `toml:"request_timeout" yaml:"request_timeout"`
}

// GatewayConfig holds the WebSocket/HTTP gateway configuration
type GatewayConfig struct {
	Host           string   `toml:"host" yaml:"host"`
	Port           int      `toml:"port" yaml:"port"`
	ReadTimeout    Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxMessageSize int64    `toml:"max_message_size" yaml:"max_message_size"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mdwerror.New(fmt.Sprintf("config file not found: %s", path)).
				WithCode(mdwerror.CodeConfigError).
				WithDetail("path", path)
		}
		return nil, mdwerror.Wrap(err, "failed to read config").WithCode(mdwerror.CodeConfigError)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config").
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("path", path)
	}
	return cfg, nil
}

// Parse decodes configuration data. ext selects the format: ".yaml" and
// ".yml" are YAML, everything else is TOML.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys: %v", undecoded)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the BEXPR_CONFIG environment
// variable or the first default location that exists. Without any config
// file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}

	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// DefaultPaths lists the config locations searched by LoadFromEnv
func DefaultPaths() []string {
	paths := []string{
		"./configs/config.toml",
		"./config.toml",
		"./config.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bexpr", "config.toml"))
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "bexpr"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "warn"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Evaluator
	if c.Evaluator.MaxDepth == 0 {
		c.Evaluator.MaxDepth = 256
	}
	if c.Evaluator.CacheTTL.Duration == 0 {
		c.Evaluator.CacheTTL.Duration = 5 * time.Minute
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "history.db")
	}
	if c.History.RetentionDays == 0 {
		c.History.RetentionDays = 30
	}

	// gRPC
	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9310
	}
	if c.GRPC.ConnectionTimeout.Duration == 0 {
		c.GRPC.ConnectionTimeout.Duration = 120 * time.Second
	}
	if c.GRPC.RequestTimeout.Duration == 0 {
		c.GRPC.RequestTimeout.Duration = 30 * time.Second
	}

	// Gateway
	if c.Gateway.Host == "" {
		c.Gateway.Host = "0.0.0.0"
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8310
	}
	if c.Gateway.ReadTimeout.Duration == 0 {
		c.Gateway.ReadTimeout.Duration = 60 * time.Second
	}
	if c.Gateway.WriteTimeout.Duration == 0 {
		c.Gateway.WriteTimeout.Duration = 10 * time.Second
	}
	if c.Gateway.MaxMessageSize == 0 {
		c.Gateway.MaxMessageSize = 64 * 1024
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// Validate checks values that have no usable default
func (c *Config) Validate() error {
	if c.Evaluator.MaxDepth < 0 {
		return mdwerror.New("evaluator.max_depth must not be negative").
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("max_depth", c.Evaluator.MaxDepth)
	}
	if c.Evaluator.CacheSize < 0 {
		return mdwerror.New("evaluator.cache_size must not be negative").
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("cache_size", c.Evaluator.CacheSize)
	}
	for name, port := range map[string]int{"grpc.port": c.GRPC.Port, "gateway.port": c.Gateway.Port} {
		if port < 0 || port > 65535 {
			return mdwerror.New(fmt.Sprintf("%s out of range", name)).
				WithCode(mdwerror.CodeInvalidConfig).
				WithDetail("port", port)
		}
	}
	return nil
}

// GetServiceAddress returns the listen address of a service
func (c *Config) GetServiceAddress(service string) string {
	switch service {
	case "grpc":
		return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
	case "gateway":
		return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
	default:
		return ""
	}
}

// DialAddress returns the address a local client uses to reach a service.
// Wildcard listen hosts are replaced by localhost.
func (c *Config) DialAddress(service string) string {
	addr := c.GetServiceAddress(service)
	if addr == "" {
		return ""
	}
	for _, wildcard := range []string{"0.0.0.0:", ":"} {
		if strings.HasPrefix(addr, wildcard) {
			return "localhost:" + strings.TrimPrefix(addr, wildcard)
		}
	}
	return addr
}
