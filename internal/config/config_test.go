package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 5174 || cfg.JoinPolicy != "reject" || cfg.PingPeriod != 54*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile_ReadsYAML(t *testing.T) {
	path := writeFile(t, "config.test.yaml", `
mode: debug
port: 9000
join_policy: append
ping_period: 5s
pong_wait: 10s
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9000 || cfg.JoinPolicy != "append" || cfg.PongWait != 10*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("DUOCALL_PORT", "7000")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 7000 {
		t.Fatalf("port=%d, want 7000", cfg.Port)
	}
}

func TestLoadFile_RejectsPingAfterPong(t *testing.T) {
	path := writeFile(t, "config.test.yaml", "ping_period: 90s\npong_wait: 60s\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadClientFile(t *testing.T) {
	cfg, err := LoadClientFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Audio || cfg.RolePolicy != "first_initiates" || len(cfg.ICEServers) != 1 {
		t.Fatalf("unexpected client defaults: %+v", cfg)
	}

	path := writeFile(t, "client.test.yaml", `
server_url: ws://relay.example/api/ws/signal
role_policy: manual
ice_servers: []
audio: false
`)
	cfg, err = LoadClientFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://relay.example/api/ws/signal" || cfg.RolePolicy != "manual" || cfg.Audio {
		t.Fatalf("unexpected client config: %+v", cfg)
	}
}
