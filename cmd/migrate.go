package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate(cmd.Context())
			if err != nil {
				cli.NewFormatter(cmd).Error(err)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", path)
			return err
		},
	}
}

func migrate(ctx context.Context) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.InitDB(ctx, cfg.Database.Path)
	if err != nil {
		return "", err
	}
	return cfg.Database.Path, db.Close()
}
