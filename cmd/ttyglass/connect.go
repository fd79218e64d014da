package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
	"github.com/Gaurav-Gosain/ttyglass/internal/config"
	"github.com/Gaurav-Gosain/ttyglass/internal/hostterm"
	"github.com/Gaurav-Gosain/ttyglass/internal/theme"
	"github.com/Gaurav-Gosain/ttyglass/internal/transport"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Attach this terminal to a ttyglass server",
		Long: `Attach this terminal to a ttyglass server.

The terminal is put in raw mode and everything typed goes to the remote
session. The session ends when the remote command exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}

			url := cfg.Client.URL
			if len(args) > 0 {
				url = args[0]
			}

			closeLogs, err := setupClientLogging(logFile)
			if err != nil {
				return err
			}
			defer closeLogs()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGHUP)
			defer stop()
			return runClient(ctx, url, cfg, path)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file (the terminal itself is in use)")

	return cmd
}

// setupClientLogging points every package logger at logFile, or discards
// logs. Stderr shares the tty with the remote session.
func setupClientLogging(logFile string) (func(), error) {
	var w io.Writer = io.Discard
	closeFn := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	log.SetOutput(w)
	adapter.SetLogOutput(w)
	hostterm.SetLogOutput(w)
	transport.SetLogOutput(w)

	if debugMode {
		log.SetLevel(log.DebugLevel)
		adapter.SetLogLevel(log.DebugLevel)
		hostterm.SetLogLevel(log.DebugLevel)
		transport.SetLogLevel(log.DebugLevel)
	}
	return closeFn, nil
}

func runClient(ctx context.Context, url string, cfg *config.Config, cfgPath string) error {
	if !theme.Initialize(cfg.Client.Theme) {
		log.Warn("unknown theme, using default", "theme", cfg.Client.Theme)
	}

	term := hostterm.New(os.Stdin, os.Stdout, hostterm.WithPixelMouse(cfg.Client.PixelMouse))

	a, err := adapter.New(term,
		adapter.WithSizeSources(hostterm.WindowSource{Fd: int(os.Stdout.Fd())}),
		adapter.WithMessageTimeout(cfg.Client.MessageTimeout()),
		adapter.WithFallbackSize(cfg.Client.DefaultColumns, cfg.Client.DefaultRows),
	)
	if err != nil {
		return err
	}

	if cfgPath != "" {
		err := config.Watch(ctx, cfgPath, func(c *config.Config, err error) {
			if err != nil {
				log.Warn("config reload failed", "err", err)
				return
			}
			a.SetMessageTimeout(c.Client.MessageTimeout())
		})
		if err != nil {
			log.Debug("config watch disabled", "err", err)
		}
	}

	tty := transport.NewWebTTY(a, transport.NewConnectionFactory(url))
	err = tty.Run(ctx)

	// Restore the tty before printing anything.
	a.Close()
	if err != nil {
		return fmt.Errorf("session with %s ended: %w", url, err)
	}
	fmt.Fprintln(os.Stderr, "\r\nttyglass: session closed")
	return nil
}
