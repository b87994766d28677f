// Package config holds the evoql server settings. Values come from built-in
// defaults, an optional YAML or TOML file and HOST/PORT style environment
// variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/evoql/pkg/expr"
)

// Config holds the server configuration.
type Config struct {
	Host           string `yaml:"host" toml:"host"`
	Port           int    `yaml:"port" toml:"port"`
	GRPCPort       int    `yaml:"grpc_port" toml:"grpc_port"`
	QueriesDir     string `yaml:"queries_dir" toml:"queries_dir"`
	CacheSize      int    `yaml:"cache_size" toml:"cache_size"`
	MaxQueryLength int    `yaml:"max_query_length" toml:"max_query_length"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           8787,
		GRPCPort:       8788,
		CacheSize:      512,
		MaxQueryLength: expr.DefaultMaxQueryLength,
	}
}

// Load builds a configuration from the defaults, the file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.decode(data, filepath.Ext(path)); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, ext string) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	}
	return fmt.Errorf("unsupported config format %q", ext)
}

func (c *Config) applyEnv() error {
	c.Host = envOrDefault("HOST", c.Host)
	c.QueriesDir = envOrDefault("QUERIES_DIR", c.QueriesDir)

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"GRPC_PORT", &c.GRPCPort},
		{"CACHE_SIZE", &c.CacheSize},
		{"MAX_QUERY_LENGTH", &c.MaxQueryLength},
	}
	for _, e := range ints {
		v := envOrDefault(e.key, "")
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("grpc port %d out of range", c.GRPCPort)
	}
	if c.GRPCPort == c.Port {
		return fmt.Errorf("grpc port %d collides with the http port", c.GRPCPort)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("max query length must be positive, got %d", c.MaxQueryLength)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the gRPC listen address. A zero gRPC port disables the
// gRPC server.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
