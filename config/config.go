// MIT License
//
// Copyright (c) 2025-2026 GrainLink Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config loads and validates the runtime configuration of the
// grainlink binary. Values are layered: compiled-in defaults, then an
// optional YAML file, then GRAINLINK_* environment variables, each layer
// overriding the previous one.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/grainlink/grainlink/internal/validation"
)

// envPrefix is stripped from environment variables before they are mapped
// onto config keys: GRAINLINK_SERVER_LISTEN_ADDR becomes server.listen_addr.
const envPrefix = "GRAINLINK_"

// Config is the full runtime configuration of the grainlink binary.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Directory DirectoryConfig `koanf:"directory"`
	Shortener ShortenerConfig `koanf:"shortener"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig configures the HTTP edge.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `koanf:"listen_addr"`
	// BaseURL is the public prefix short URLs are built from.
	BaseURL string `koanf:"base_url"`
	// ShutdownTimeout bounds the graceful drain on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is the persistence backend, either "bolt" or "memory".
	// The memory backend is volatile and only suitable for local runs.
	Backend string `koanf:"backend"`
	// Path is the bolt database file.
	Path string `koanf:"path"`
}

// DirectoryConfig tunes the link directory runtime.
type DirectoryConfig struct {
	// DeactivateAfter is the idle window before a resident link is
	// passivated. Zero or negative disables idle eviction.
	DeactivateAfter time.Duration `koanf:"deactivate_after"`
	// StoreTimeout bounds every store operation issued by a resident link.
	StoreTimeout time.Duration `koanf:"store_timeout"`
	// InitTimeout bounds one hydration attempt during activation.
	InitTimeout time.Duration `koanf:"init_timeout"`
	// InitMaxRetries is the hydration attempt budget during activation.
	InitMaxRetries int `koanf:"init_max_retries"`
}

// ShortenerConfig tunes code generation.
type ShortenerConfig struct {
	// NodeNumber feeds the snowflake generator; instances sharing a store
	// must use distinct node numbers.
	NodeNumber int64 `koanf:"node_number"`
	// CreateMaxAttempts bounds candidate codes tried per create call.
	CreateMaxAttempts int `koanf:"create_max_attempts"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warning, error.
	Level string `koanf:"level"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: "bolt",
			Path:    "grainlink.db",
		},
		Directory: DirectoryConfig{
			DeactivateAfter: 2 * time.Minute,
			StoreTimeout:    5 * time.Second,
			InitTimeout:     time.Second,
			InitMaxRetries:  5,
		},
		Shortener: ShortenerConfig{
			NodeNumber:        1,
			CreateMaxAttempts: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and GRAINLINK_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// GRAINLINK_SERVER_LISTEN_ADDR -> server.listen_addr: the first
	// underscore separates the section, the rest stays as the key
	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.Replace(
			strings.TrimPrefix(key, envPrefix), "_", ".", 1))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. All violations
// are reported, not just the first one.
func (c Config) Validate() error {
	return validation.
		New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("server.listen_addr", c.Server.ListenAddr)).
		AddValidator(validation.NewEmptyStringValidator("server.base_url", c.Server.BaseURL)).
		AddAssertion(c.Server.ShutdownTimeout > 0, "server.shutdown_timeout must be positive").
		AddAssertion(c.Store.Backend == "bolt" || c.Store.Backend == "memory", "store.backend must be one of: bolt, memory").
		AddAssertion(c.Store.Backend != "bolt" || c.Store.Path != "", "store.path is required for the bolt backend").
		AddAssertion(c.Directory.StoreTimeout > 0, "directory.store_timeout must be positive").
		AddAssertion(c.Directory.InitTimeout > 0, "directory.init_timeout must be positive").
		AddAssertion(c.Directory.InitMaxRetries > 0, "directory.init_max_retries must be positive").
		AddAssertion(c.Shortener.NodeNumber >= 0, "shortener.node_number must not be negative").
		AddAssertion(c.Shortener.CreateMaxAttempts > 0, "shortener.create_max_attempts must be positive").
		Validate()
}
