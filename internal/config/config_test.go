package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  port: 9200\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.DefaultPageSize != 10 {
		t.Errorf("default_page_size = %d, want 10", cfg.Engine.DefaultPageSize)
	}
	if cfg.Engine.ClusterName != "testcluster" {
		t.Errorf("cluster_name = %q", cfg.Engine.ClusterName)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("timeouts = %+v", cfg.HTTP)
	}
	if cfg.Faults.ServerFailure {
		t.Error("server_failure enabled by default")
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("ESMEM_TEST_PORT", "9300")
	t.Setenv("ESMEM_TEST_FAIL", "")

	data := []byte(`
http:
  port: ${ESMEM_TEST_PORT}
faults:
  server_failure: ${ESMEM_TEST_FAIL:-true}
engine:
  indices: [logs, users]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9300 {
		t.Errorf("port = %d, want 9300", cfg.HTTP.Port)
	}
	if !cfg.Faults.ServerFailure {
		t.Error("server_failure default not applied")
	}
	if strings.Join(cfg.Engine.Indices, ",") != "logs,users" {
		t.Errorf("indices = %v", cfg.Engine.Indices)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{HTTP: HTTPConfig{Port: 8080}, Engine: EngineConfig{Indices: []string{"books"}}},
		},
		{
			name:    "port out of range",
			cfg:     Config{HTTP: HTTPConfig{Port: 70000}},
			wantErr: "http.port",
		},
		{
			name:    "wildcard index",
			cfg:     Config{HTTP: HTTPConfig{Port: 8080}, Engine: EngineConfig{Indices: []string{"logs-*"}}},
			wantErr: "engine.indices[0]",
		},
		{
			name:    "uppercase index",
			cfg:     Config{HTTP: HTTPConfig{Port: 8080}, Engine: EngineConfig{Indices: []string{"ok", "Books"}}},
			wantErr: "engine.indices[1]",
		},
		{
			name:    "blank api key",
			cfg:     Config{HTTP: HTTPConfig{Port: 8080}, Auth: AuthConfig{APIKeys: []string{" "}}},
			wantErr: "auth.api_keys[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port <= 0 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("GetEnv() = %q, want local", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("GetEnv() = %q, want prod", GetEnv())
	}
}
