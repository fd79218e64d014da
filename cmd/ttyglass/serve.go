package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Gaurav-Gosain/ttyglass/internal/web"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		host           string
		port           int
		readOnly       bool
		maxConnections int
	)

	cmd := &cobra.Command{
		Use:   "serve [flags] [-- command [args...]]",
		Short: "Serve a command over websocket",
		Long: `Serve a command over websocket.

Every connection gets its own copy of the command running on a
pseudo-terminal. Without a command the configured one, or $SHELL, is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			sc := web.DefaultConfig()
			sc.Host = cfg.Server.Host
			sc.Port = cfg.Server.Addr()
			sc.Command = cfg.Server.Command
			sc.ReadOnly = cfg.Server.ReadOnly
			sc.MaxConnections = cfg.Server.MaxConnections
			sc.Debug = cfg.Server.Debug || debugMode

			flags := cmd.Flags()
			if flags.Changed("host") {
				sc.Host = host
			}
			if flags.Changed("port") {
				sc.Port = strconv.Itoa(port)
			}
			if flags.Changed("read-only") {
				sc.ReadOnly = readOnly
			}
			if flags.Changed("max-connections") {
				sc.MaxConnections = maxConnections
			}
			if len(args) > 0 {
				sc.Command = args
			}
			if sc.Debug {
				web.SetLogLevel(log.DebugLevel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, sc)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Web server host")
	cmd.Flags().IntVar(&port, "port", 7681, "Web server port")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Disable input from clients (view only)")
	cmd.Flags().IntVar(&maxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")

	return cmd
}

func runServer(ctx context.Context, sc web.Config) error {
	return web.NewServer(sc).Start(ctx)
}
