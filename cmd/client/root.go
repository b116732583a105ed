package main

import (
	"github.com/dkeye/duocall/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagServer string
	flagManual bool
	flagRecord string
)

var rootCmd = &cobra.Command{
	Use:   "duocall",
	Short: "Two-party WebRTC calls through a duocall relay",
	Long: `duocall joins a named room on a relay and negotiates a direct
WebRTC call with whoever else joins it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "client config file (default config/client.<CONFIG_ENV>.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "relay WebSocket URL, overrides server_url")
	rootCmd.AddCommand(joinCmd)
}

func loadConfig() (*config.ClientConfig, error) {
	var (
		cfg *config.ClientConfig
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadClientFile(flagConfig)
	} else {
		cfg, err = config.LoadClient()
	}
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	return cfg, nil
}
