package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	VaultDir     string
	SettingsPath string // plugin settings JSON; empty means <vault>/.vmemo/data.json
	Device       string // capture device name; empty means system default
	Wikilinks    bool
	Hotkey       string // toggle, hybrid or off
	Sounds       bool   // start, stop and error cues
}

type fileConfig struct {
	VaultDir     string `toml:"vault_dir"`
	SettingsPath string `toml:"settings_path"`
	Device       string `toml:"device"`
	Wikilinks    *bool  `toml:"wikilinks"`
	Hotkey       string `toml:"hotkey"`
	Sounds       *bool  `toml:"sounds"`
}

func defaults() *Config {
	return &Config{
		VaultDir:  defaultVaultDir(),
		Wikilinks: true,
		Hotkey:    "toggle",
		Sounds:    true,
	}
}

// Load reads path, or the default config file when path is empty, then applies
// environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		var fc fileConfig
		_, err := toml.DecodeFile(path, &fc)
		switch {
		case err == nil:
			cfg.merge(fc)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func (cfg *Config) merge(fc fileConfig) {
	if fc.VaultDir != "" {
		cfg.VaultDir = expandTilde(fc.VaultDir)
	}
	if fc.SettingsPath != "" {
		cfg.SettingsPath = expandTilde(fc.SettingsPath)
	}
	if fc.Device != "" {
		cfg.Device = fc.Device
	}
	if fc.Wikilinks != nil {
		cfg.Wikilinks = *fc.Wikilinks
	}
	if fc.Hotkey != "" {
		cfg.Hotkey = fc.Hotkey
	}
	if fc.Sounds != nil {
		cfg.Sounds = *fc.Sounds
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VMEMO_VAULT"); v != "" {
		cfg.VaultDir = expandTilde(v)
	}
	if v := os.Getenv("VMEMO_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := os.Getenv("VMEMO_SETTINGS"); v != "" {
		cfg.SettingsPath = expandTilde(v)
	}
}

// ResolvedSettingsPath is where the plugin settings live for this config.
func (cfg *Config) ResolvedSettingsPath() string {
	if cfg.SettingsPath != "" {
		return cfg.SettingsPath
	}
	return filepath.Join(cfg.VaultDir, ".vmemo", "data.json")
}

// DefaultPath is $XDG_CONFIG_HOME/vmemo/config.toml, falling back to ~/.config.
func DefaultPath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "vmemo")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "vmemo")
	} else {
		return ""
	}
	return filepath.Join(configDir, "config.toml")
}

func defaultVaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Documents", "vault")
	}
	return "."
}

// ExpandTilde resolves a leading ~/ against the home directory.
func ExpandTilde(path string) string {
	return expandTilde(path)
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
