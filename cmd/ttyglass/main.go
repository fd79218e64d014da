// Package main implements ttyglass - a terminal client and server for
// remote shell sessions.
//
// "ttyglass serve" runs a command on a pseudo-terminal for every websocket
// connection. "ttyglass connect" attaches the local terminal to such a
// session, forwarding keyboard and mouse input as terminal escape
// sequences.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ttyglass",
		Short: "Remote terminal sessions over websocket",
		Long: `ttyglass - Remote Terminal Sessions

Serve a shell (or any command) over websocket and attach to it from another
terminal. Mouse clicks, drags and the wheel are forwarded to programs that
enable mouse reporting, and the remote side follows local window resizes.`,
		Example: `  # Serve your shell on localhost:7681
  ttyglass serve

  # Serve htop read-only to the network
  ttyglass serve --host 0.0.0.0 --read-only -- htop

  # Attach to a server
  ttyglass connect ws://localhost:7681/ws`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/ttyglass/config.toml)")

	rootCmd.AddCommand(newServeCmd(), newConnectCmd(), newConfigCmd())

	// Execute with fang
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
