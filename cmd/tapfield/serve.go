package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tapfield/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagMaxPlayers  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tapfield SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own session with a game picker menu. From the
menu a player can play alone, or press O to open a shared room: everyone who
joins with the room's 4-letter code taps on the same field, and whoever
reaches a slot first gets it.

Scores are stored per-server (all users share the same leaderboard); shared
rooms store every player's result when they close.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tapfield/host_key

Examples:
  tapfield serve                           # Listen on :23234 with auto-generated key
  tapfield serve --ssh :2222               # Listen on port 2222
  tapfield serve --host-key ./my_host_key  # Use specific host key
  tapfield serve --db ./scores.db          # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().IntVar(&flagMaxPlayers, "max-players", 8, "Players per shared room (0 = unlimited)")
}

func runServe(_ *cobra.Command, _ []string) error {
	rc, err := runtimeConfig(0, 0)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		DBPath:      flagDBPath,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		TickRate:    rc.TickRate,
		ConfigPath:  rc.ConfigPath,
		Difficulty:  rc.Difficulty,
		MaxPlayers:  flagMaxPlayers,
		Logger:      logger,
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting tapfield SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
