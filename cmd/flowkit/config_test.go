package main

import (
	"os"
	"path/filepath"
	"testing"
)

type setFlags map[string]bool

func (s setFlags) IsSet(name string) bool { return s[name] }

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`log_level: debug
log_format: json
allow_unresolved_labels: true
server_address: 0.0.0.0:9000
max_body_bytes: 1024
store_limit: 8
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.LogLevel != "debug" || c.LogFormat != "json" || c.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.AllowUnresolvedLabels == nil || !*c.AllowUnresolvedLabels {
		t.Fatalf("allow_unresolved_labels not loaded")
	}
	if c.MaxBodyBytes == nil || *c.MaxBodyBytes != 1024 || c.StoreLimit == nil || *c.StoreLimit != 8 {
		t.Fatalf("server limits not loaded: %+v", c)
	}

	missing, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil || missing != (Config{}) {
		t.Fatalf("missing file: %+v %v", missing, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_level: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	t.Parallel()

	allow := true
	maxBody := int64(64)
	limit := 4
	c := Config{
		LogLevel:              "warn",
		LogFormat:             "json",
		AllowUnresolvedLabels: &allow,
		ServerAddress:         ":9999",
		MaxBodyBytes:          &maxBody,
		StoreLimit:            &limit,
	}

	level, format := "info", "pretty"
	applyLoggingConfig(setFlags{"log-level": true}, c, &level, &format)
	if level != "info" || format != "json" {
		t.Fatalf("logging config: level=%q format=%q", level, format)
	}

	var allowUnresolved bool
	applyPackConfig(setFlags{}, c, &allowUnresolved)
	if !allowUnresolved {
		t.Fatal("allow_unresolved_labels not applied")
	}
	allowUnresolved = false
	applyPackConfig(setFlags{"allow-unresolved": true}, c, &allowUnresolved)
	if allowUnresolved {
		t.Fatal("explicit flag overridden by config")
	}

	addr, body, store := "127.0.0.1:8080", int64(1), int64(2)
	applyServeConfig(setFlags{"store-limit": true}, c, &addr, &body, &store)
	if addr != ":9999" || body != 64 || store != 2 {
		t.Fatalf("serve config: addr=%q body=%d store=%d", addr, body, store)
	}
}
