// Package config loads the ttyglass configuration file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

// AppName is the directory under the XDG config home.
const AppName = "ttyglass"

// FileName is the configuration file name.
const FileName = "config.toml"

// Default values
const (
	DefaultURL              = "ws://localhost:7681/ws"
	DefaultMessageTimeoutMs = 2000
	DefaultColumns          = 80
	DefaultRows             = 24
	DefaultHost             = "localhost"
	DefaultPort             = 7681
)

// Config is the whole configuration file.
type Config struct {
	Client ClientConfig `toml:"client"`
	Server ServerConfig `toml:"server"`
}

// ClientConfig configures "ttyglass connect".
type ClientConfig struct {
	URL              string `toml:"url" comment:"Server to connect to when no URL is given"`
	MessageTimeoutMs int    `toml:"message_timeout_ms" comment:"How long the size notice stays up after a resize (0 keeps it)"`
	DefaultColumns   int    `toml:"default_columns" comment:"Columns reported before the terminal knows its size"`
	DefaultRows      int    `toml:"default_rows" comment:"Rows reported before the terminal knows its size"`
	PixelMouse       bool   `toml:"pixel_mouse" comment:"Ask the host terminal for pixel precise mouse reports"`
	Theme            string `toml:"theme" comment:"bubbletint theme for notices, e.g. dracula; empty uses built-in colors"`
}

// ServerConfig configures "ttyglass serve".
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	Command        []string `toml:"command" comment:"Command run for each session; empty uses $SHELL"`
	ReadOnly       bool     `toml:"read_only"`
	MaxConnections int      `toml:"max_connections" comment:"0 means unlimited"`
	Debug          bool     `toml:"debug"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			URL:              DefaultURL,
			MessageTimeoutMs: DefaultMessageTimeoutMs,
			DefaultColumns:   DefaultColumns,
			DefaultRows:      DefaultRows,
			PixelMouse:       true,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

// MessageTimeout returns the notice timeout as a duration.
func (c ClientConfig) MessageTimeout() time.Duration {
	return time.Duration(c.MessageTimeoutMs) * time.Millisecond
}

// Addr returns the port as a string for net.JoinHostPort.
func (s ServerConfig) Addr() string {
	return strconv.Itoa(s.Port)
}

// GetConfigPath returns the path of the configuration file, creating its
// directory if needed.
func GetConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(AppName, FileName))
	if err != nil {
		return "", fmt.Errorf("could not determine config path: %w", err)
	}
	return path, nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Client.MessageTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("client.message_timeout_ms must not be negative, got %d", c.Client.MessageTimeoutMs))
	}
	if c.Client.DefaultColumns < 0 || c.Client.DefaultRows < 0 {
		errs = append(errs, fmt.Errorf("client default size must not be negative, got %dx%d", c.Client.DefaultColumns, c.Client.DefaultRows))
	}
	if c.Client.URL != "" && !strings.HasPrefix(c.Client.URL, "ws://") && !strings.HasPrefix(c.Client.URL, "wss://") {
		errs = append(errs, fmt.Errorf("client.url must be a ws:// or wss:// URL, got %q", c.Client.URL))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.MaxConnections))
	}
	return errors.Join(errs...)
}

// Write saves cfg to path with a comment header.
func Write(path string, cfg *Config) error {
	var sb strings.Builder
	sb.WriteString("# ttyglass configuration file\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + path + "\n\n")

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	sb.Write(data)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Watch calls fn with the reloaded configuration each time path changes,
// until ctx is done. The directory is watched so editors that replace the
// file are seen too. Parse errors are passed to fn with a nil config.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				fn(Load(path))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("watch error: %w", err))
			}
		}
	}()
	return nil
}
