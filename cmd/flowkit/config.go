package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envFlowkitConfig = "FLOWKIT_CONFIG"

// Config represents the flowkit configuration file
// (~/.config/flowkit/config.yaml). Pointer fields distinguish "not set" from
// zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Encoding
	AllowUnresolvedLabels *bool `yaml:"allow_unresolved_labels"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBodyBytes  *int64 `yaml:"max_body_bytes"`
	StoreLimit    *int   `yaml:"store_limit"`
}

func configPath() string {
	if p := os.Getenv(envFlowkitConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "flowkit", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// isSet is the subset of *cli.Command used to decide whether a flag was
// given explicitly.
type isSet interface {
	IsSet(name string) bool
}

func applyLoggingConfig(c isSet, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

func applyPackConfig(c isSet, cfg Config, allowUnresolved *bool) {
	if cfg.AllowUnresolvedLabels != nil && !c.IsSet("allow-unresolved") {
		*allowUnresolved = *cfg.AllowUnresolvedLabels
	}
}

func applyServeConfig(c isSet, cfg Config, addr *string, maxBody *int64, storeLimit *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body-bytes") {
		*maxBody = *cfg.MaxBodyBytes
	}
	if cfg.StoreLimit != nil && !c.IsSet("store-limit") {
		*storeLimit = int64(*cfg.StoreLimit)
	}
}

var _ isSet = (*cli.Command)(nil)
