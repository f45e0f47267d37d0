package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default configuration values
const (
	DefaultAddr          = ":8080"
	DefaultSendBuffer    = 256
	DefaultMaxNameLength = 64
	DefaultEmptyRoomTTL  = 10 * time.Minute
	DefaultURL           = "ws://localhost:8080/ws"
	DefaultSTUN          = "stun:stun.l.google.com:19302"
	DefaultEnvFile       = ".env"
)

// Environment variable names
const (
	EnvConfig         = "ROOMRELAY_CONFIG"
	EnvAddr           = "ROOMRELAY_ADDR"
	EnvAllowedOrigins = "ROOMRELAY_ALLOWED_ORIGINS"
	EnvSendBuffer     = "ROOMRELAY_SEND_BUFFER"
	EnvMaxNameLength  = "ROOMRELAY_MAX_NAME_LENGTH"
	EnvEmptyRoomTTL   = "ROOMRELAY_EMPTY_ROOM_TTL"
	EnvURL            = "ROOMRELAY_URL"
	EnvSTUN           = "STUN_SERVER"
	EnvTURN           = "TURN_SERVER"
	EnvTURNUser       = "TURN_USERNAME"
	EnvTURNPass       = "TURN_PASSWORD"
)

// Config holds application configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
}

// ServerConfig configures the signaling server.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// AllowedOrigins lists the Origin headers accepted on upgrade.
	// Empty allows every origin.
	AllowedOrigins []string `toml:"allowed_origins"`

	SendBuffer    int `toml:"send_buffer"`
	MaxNameLength int `toml:"max_name_length"`

	// EmptyRoomTTL is how long a room nobody joined may live. Zero disables
	// the sweep.
	EmptyRoomTTL Duration `toml:"empty_room_ttl"`
}

// ClientConfig configures the command line peer.
type ClientConfig struct {
	URL string `toml:"url"`

	// ICE servers for WebRTC
	STUNServer string `toml:"stun"`
	TURNServer string `toml:"turn"`
	TURNUser   string `toml:"turn_username"`
	TURNPass   string `toml:"turn_password"`
}

// Duration is a time.Duration read from strings such as "10m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options for loading config with CLI flag overrides. Zero values mean the
// flag was not given.
type Options struct {
	ConfigFile string
	EnvFile    string

	Addr           string
	AllowedOrigins []string

	URL        string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          DefaultAddr,
			SendBuffer:    DefaultSendBuffer,
			MaxNameLength: DefaultMaxNameLength,
			EmptyRoomTTL:  Duration{DefaultEmptyRoomTTL},
		},
		Client: ClientConfig{
			URL:        DefaultURL,
			STUNServer: DefaultSTUN,
		},
	}
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables, including those from the .env file
// 3. The TOML config file
// 4. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyOptions(opts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("read config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(EnvSendBuffer); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSendBuffer, err)
		}
		c.Server.SendBuffer = n
	}
	if v := os.Getenv(EnvMaxNameLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxNameLength, err)
		}
		c.Server.MaxNameLength = n
	}
	if v := os.Getenv(EnvEmptyRoomTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvEmptyRoomTTL, err)
		}
		c.Server.EmptyRoomTTL = Duration{d}
	}

	if v := os.Getenv(EnvURL); v != "" {
		c.Client.URL = v
	}
	if v := os.Getenv(EnvSTUN); v != "" {
		c.Client.STUNServer = v
	}
	if v := os.Getenv(EnvTURN); v != "" {
		c.Client.TURNServer = v
	}
	if v := os.Getenv(EnvTURNUser); v != "" {
		c.Client.TURNUser = v
	}
	if v := os.Getenv(EnvTURNPass); v != "" {
		c.Client.TURNPass = v
	}
	return nil
}

func (c *Config) applyOptions(opts Options) {
	if opts.Addr != "" {
		c.Server.Addr = opts.Addr
	}
	if len(opts.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = opts.AllowedOrigins
	}
	if opts.URL != "" {
		c.Client.URL = opts.URL
	}
	if opts.STUNServer != "" {
		c.Client.STUNServer = opts.STUNServer
	}
	if opts.TURNServer != "" {
		c.Client.TURNServer = opts.TURNServer
	}
	if opts.TURNUser != "" {
		c.Client.TURNUser = opts.TURNUser
	}
	if opts.TURNPass != "" {
		c.Client.TURNPass = opts.TURNPass
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.Server.SendBuffer)
	}
	if c.Server.MaxNameLength <= 0 {
		return fmt.Errorf("max_name_length must be positive, got %d", c.Server.MaxNameLength)
	}
	if c.Server.EmptyRoomTTL.Duration < 0 {
		return fmt.Errorf("empty_room_ttl must not be negative, got %s", c.Server.EmptyRoomTTL)
	}
	return nil
}

// GetSTUNServers returns STUN server URLs as strings
func (c *ClientConfig) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured. A bare host is
// expanded to the usual UDP, TCP and TLS endpoints.
func (c *ClientConfig) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	if strings.Contains(c.TURNServer, ":") {
		return []string{c.TURNServer}
	}
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("turn:%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *ClientConfig) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
