package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CLOUDVAR_"

// Config holds everything the CLI needs to build a session.
type Config struct {
	Username  string `koanf:"username"`
	SessionID string `koanf:"session_id"`
	Project   string `koanf:"project"`
	Turbowarp bool   `koanf:"turbowarp"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cloudvar", "config.yaml")
}

// loadConfig layers the YAML file under CLOUDVAR_* environment
// variables. A missing default file is fine; a missing explicit file
// is an error.
func loadConfig(path string) (Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// overrideFromFlags applies command-line flags on top of the loaded
// configuration. Flags always win.
func overrideFromFlags(cfg Config) Config {
	if flagUsername != "" {
		cfg.Username = flagUsername
	}
	if flagProject != "" {
		cfg.Project = flagProject
	}
	if flagTurbo {
		cfg.Turbowarp = true
	}
	return cfg
}

func resolveConfig() (Config, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return Config{}, err
	}
	cfg = overrideFromFlags(cfg)
	if cfg.Project == "" {
		return Config{}, fmt.Errorf("project id required (flag --project, CLOUDVAR_PROJECT, or config file)")
	}
	if cfg.Username == "" {
		return Config{}, fmt.Errorf("username required (flag --username, CLOUDVAR_USERNAME, or config file)")
	}
	return cfg, nil
}
