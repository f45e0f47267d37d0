package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

var allEnv = []string{
	EnvConfig, EnvAddr, EnvAllowedOrigins, EnvSendBuffer, EnvMaxNameLength,
	EnvEmptyRoomTTL, EnvURL, EnvSTUN, EnvTURN, EnvTURNUser, EnvTURNPass,
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnv {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr || cfg.Server.SendBuffer != DefaultSendBuffer {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.EmptyRoomTTL.Duration != DefaultEmptyRoomTTL {
		t.Errorf("ttl = %s", cfg.Server.EmptyRoomTTL)
	}
	if cfg.Client.URL != DefaultURL || cfg.Client.STUNServer != DefaultSTUN {
		t.Errorf("client = %+v", cfg.Client)
	}
	if cfg.Client.GetTURNServers() != nil {
		t.Error("TURN configured by default")
	}
}

func TestLoadPriority(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "roomrelay.toml", `
[server]
addr = ":9000"
allowed_origins = ["https://file.example"]
send_buffer = 32
empty_room_ttl = "30s"

[client]
url = "ws://file.example/ws"
stun = "stun:file.example:3478"
`)
	t.Setenv(EnvAddr, ":9100")
	t.Setenv(EnvMaxNameLength, "12")
	t.Setenv(EnvSTUN, "stun:env.example:3478")

	cfg, err := Load(Options{
		ConfigFile: path,
		EnvFile:    noEnvFile(t),
		STUNServer: "stun:flag.example:3478",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9100" {
		t.Errorf("addr = %q, env should beat file", cfg.Server.Addr)
	}
	if cfg.Server.SendBuffer != 32 {
		t.Errorf("send_buffer = %d, file should beat default", cfg.Server.SendBuffer)
	}
	if cfg.Server.MaxNameLength != 12 {
		t.Errorf("max_name_length = %d", cfg.Server.MaxNameLength)
	}
	if cfg.Server.EmptyRoomTTL.Duration != 30*time.Second {
		t.Errorf("ttl = %s", cfg.Server.EmptyRoomTTL)
	}
	if !slices.Equal(cfg.Server.AllowedOrigins, []string{"https://file.example"}) {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Client.URL != "ws://file.example/ws" {
		t.Errorf("url = %q", cfg.Client.URL)
	}
	if cfg.Client.STUNServer != "stun:flag.example:3478" {
		t.Errorf("stun = %q, flag should beat env", cfg.Client.STUNServer)
	}
}

func TestLoadConfigFromEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfig, writeFile(t, "c.toml", "[server]\naddr = \":7000\"\n"))

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "ROOMRELAY_URL=ws://dotenv.example/ws\nROOMRELAY_ALLOWED_ORIGINS=https://a.example, https://b.example\n")

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.URL != "ws://dotenv.example/ws" {
		t.Errorf("url = %q", cfg.Client.URL)
	}
	if !slices.Equal(cfg.Server.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad send buffer", env: map[string]string{EnvSendBuffer: "lots"}},
		{name: "zero send buffer", env: map[string]string{EnvSendBuffer: "0"}},
		{name: "bad ttl", env: map[string]string{EnvEmptyRoomTTL: "soon"}},
		{name: "negative ttl", env: map[string]string{EnvEmptyRoomTTL: "-1m"}},
		{name: "unknown key", file: "[server]\nport = 1\n"},
		{name: "bad toml", file: "[server\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := Options{EnvFile: noEnvFile(t)}
			if tt.file != "" {
				opts.ConfigFile = writeFile(t, "c.toml", tt.file)
			}
			if _, err := Load(opts); err == nil {
				t.Fatal("Load succeeded")
			}
		})
	}
}

func TestTURNServers(t *testing.T) {
	c := ClientConfig{TURNServer: "turn.example", TURNUser: "u", TURNPass: "p"}
	got := c.GetTURNServers()
	want := []string{
		"turn:turn.example:3478?transport=udp",
		"turn:turn.example:3478?transport=tcp",
		"turns:turn.example:5349?transport=tcp",
	}
	if !slices.Equal(got, want) {
		t.Errorf("GetTURNServers() = %v", got)
	}

	c.TURNServer = "turn:relay.example:3478"
	if got := c.GetTURNServers(); !slices.Equal(got, []string{"turn:relay.example:3478"}) {
		t.Errorf("explicit url expanded: %v", got)
	}

	if u, p := c.GetTURNCredentials(); u != "u" || p != "p" {
		t.Errorf("credentials = %q %q", u, p)
	}
}
