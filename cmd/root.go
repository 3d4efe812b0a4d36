// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/serialfactory/internal/config"
	"github.com/Thermoquad/serialfactory/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Ambient flags
	configPath string
	logLevel   string
	logFormat  string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "serialfactory",
	Short: "Serial Factory frame analyzer",
	Long: `serialfactory - A CLI tool for sending, monitoring and recording Serial Factory frames.

Frames are small fixed-layout binary messages (start byte 0xBD, type id, length,
payload, CRC-8) exchanged with a device over a serial port or a WebSocket bridge.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Defaults for any flag can be set in a TOML file (--config, or the per-user
config directory). For WebSocket authentication, the password is read from the
SERIALFACTORY_PASSWORD environment variable, or prompted interactively if not set.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupAmbient,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Diagnostic log format (console, json)")
}

// setupAmbient loads the config file under the flags and builds the logger
func setupAmbient(cmd *cobra.Command, args []string) error {
	path, optional := configPath, false
	if path == "" {
		path, optional = config.DefaultPath(), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	applyConfig(cmd, cfg)

	l, err := logging.New(logLevel, logFormat)
	if err != nil {
		return fmt.Errorf("invalid logging flags: %w", err)
	}
	logger = l
	logger.Debug("configuration loaded", zap.String("config", path), zap.String("command", cmd.Name()))
	return nil
}

// applyConfig copies config values into flags the user left unset
func applyConfig(cmd *cobra.Command, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("port") && cfg.Connection.Port != "" {
		portName = cfg.Connection.Port
	}
	if !flags.Changed("baud") {
		baudRate = cfg.Connection.Baud
	}
	if !flags.Changed("url") && cfg.Connection.URL != "" {
		wsURL = cfg.Connection.URL
	}
	if !flags.Changed("username") && cfg.Connection.Username != "" {
		wsUsername = cfg.Connection.Username
	}
	if !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = wsNoSSLVerify || cfg.Connection.NoSSLVerify
	}
	if !flags.Changed("log-level") {
		logLevel = cfg.Log.Level
	}
	if !flags.Changed("log-format") {
		logFormat = cfg.Log.Format
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
