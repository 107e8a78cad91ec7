package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/api"
	"github.com/thenoetrevino/tablero/internal/app"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/logging"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the tablero API. Configuration comes from the config file and the
TABLERO_* environment variables; --addr overrides the listen address.

Examples:
  TABLERO_JWT_SECRET=change-me tablero serve
  tablero serve --addr :9090
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runServe(cmd); err != nil {
				cli.NewFormatter(cmd).Error(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := logging.Init(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.WithHub(), app.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close app", "error", err)
		}
	}()

	auth, err := api.NewAuth(cfg.Auth.Mode, []byte(cfg.Auth.Secret))
	if err != nil {
		return err
	}
	e := api.New(api.Services{
		Users:    a.UserService,
		Boards:   a.BoardService,
		Statuses: a.StatusService,
		Tickets:  a.TicketService,
	}, auth, a.Hub, logger)

	go a.Hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(cfg.HTTP.Addr)
	}()
	logger.Info("tablero server starting", "addr", cfg.HTTP.Addr, "db", cfg.Database.Path,
		"auth", auth.Mode, "lock", cfg.Lock.Backend, "pid", os.Getpid())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("tablero server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
		return err
	}
	return nil
}
