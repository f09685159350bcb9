package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config", "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const validConfig = `
http:
  port: 8085
database:
  addrs:
    - localhost:6379
embedding:
  model: text-embedding-3-small
`

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, validConfig)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("read timeout = %d, want default 10", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.KeyPrefix != "site:" {
		t.Errorf("key prefix = %q, want default", cfg.Search.KeyPrefix)
	}
	if cfg.Search.Collection != "content" || cfg.Search.PrefixCollection != "prefix" {
		t.Errorf("collections = %q/%q, want defaults", cfg.Search.Collection, cfg.Search.PrefixCollection)
	}
	if cfg.Search.PageSize != 5 {
		t.Errorf("page size = %d, want default 5", cfg.Search.PageSize)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("provider = %q, want default openai", cfg.Embedding.Provider)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis-prod:6379")
	os.Unsetenv("TEST_UNSET_PORT")

	writeConfig(t, `
http:
  port: ${TEST_UNSET_PORT:-9090}
database:
  addrs:
    - ${TEST_REDIS_ADDR:-localhost:6379}
embedding:
  model: m
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want fallback 9090", cfg.HTTP.Port)
	}
	if cfg.Database.Addrs[0] != "redis-prod:6379" {
		t.Errorf("addr = %q, want env value", cfg.Database.Addrs[0])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: true},
		{name: "no addrs", mutate: func(c *Config) { c.Database.Addrs = nil }, wantErr: true},
		{name: "no model", mutate: func(c *Config) { c.Embedding.Model = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				HTTP:      HTTPConfig{Port: 8085},
				Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
				Embedding: EmbeddingConfig{Model: "m"},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
