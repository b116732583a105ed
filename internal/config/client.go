package config

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ClientConfig configures one participant.
type ClientConfig struct {
	ServerURL       string   `mapstructure:"server_url"`
	LogLevel        string   `mapstructure:"log_level"`
	ICEServers      []string `mapstructure:"ice_servers"`
	RolePolicy      string   `mapstructure:"role_policy"`
	Audio           bool     `mapstructure:"audio"`
	IncludeLoopback bool     `mapstructure:"include_loopback"`
	DisableMDNS     bool     `mapstructure:"disable_mdns"`
}

func LoadClient() (*ClientConfig, error) {
	return LoadClientFile(envFileName("client"))
}

func LoadClientFile(fileName string) (*ClientConfig, error) {
	v := newViper(fileName)
	v.SetDefault("server_url", "ws://localhost:5174/api/ws/signal")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("role_policy", "first_initiates")
	v.SetDefault("audio", true)
	v.SetDefault("include_loopback", false)
	v.SetDefault("disable_mdns", false)
	if err := readIn(v, fileName); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required")
	}
	log.Info().Str("module", "config").Str("server", cfg.ServerURL).Str("roles", cfg.RolePolicy).Msg("client config ready")
	return &cfg, nil
}
