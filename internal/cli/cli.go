package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/app"
	"github.com/thenoetrevino/tablero/internal/cli/styles"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/logging"
)

// EnvUser names the acting user when --as is not given.
const EnvUser = "TABLERO_USER"

// CLI represents the CLI application context
type CLI struct {
	App    *app.App // Application container with services
	Config *config.Config
}

// Opener builds the CLI context for one command run.
type Opener func(ctx context.Context) (*CLI, error)

// Open loads the configuration and opens the local database.
func Open(ctx context.Context) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewCLI(ctx, cfg)
}

// NewCLI initializes the CLI against the database named by cfg.
// Events are not published: no hub runs inside a CLI process.
func NewCLI(ctx context.Context, cfg *config.Config, opts ...app.Option) (*CLI, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	// Only warnings reach the terminal; command output stays clean.
	logger := logging.New(os.Stderr, max(level, slog.LevelWarn))
	styles.Init(cfg.Theme)

	application, err := app.New(ctx, cfg, append([]app.Option{app.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return &CLI{App: application, Config: cfg}, nil
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	return c.App.Close()
}

// AddActingUserFlag registers --as on cmd.
func AddActingUserFlag(cmd *cobra.Command) {
	cmd.Flags().Int("as", 0, "ID of the user the command acts as (default $"+EnvUser+")")
}

// ActingUser returns the --as flag, falling back to TABLERO_USER.
func ActingUser(cmd *cobra.Command) (int, error) {
	id, _ := cmd.Flags().GetInt("as")
	if id == 0 {
		if raw := os.Getenv(EnvUser); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return 0, UsageError(fmt.Errorf("%s must be a user ID, got %q", EnvUser, raw))
			}
			id = n
		}
	}
	if id <= 0 {
		return 0, UsageError(fmt.Errorf("an acting user is required: pass --as or set %s", EnvUser))
	}
	return id, nil
}

// ParseID parses a positive integer argument.
func ParseID(name, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, UsageError(fmt.Errorf("%s must be a positive integer, got %q", name, raw))
	}
	return id, nil
}
