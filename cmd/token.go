package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/api"
	"github.com/thenoetrevino/tablero/internal/cli"
)

type tokenResult struct {
	UserID    int       `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenCmd returns the token command
func TokenCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a bearer token for a user",
		Long: `Sign an HS256 bearer token with the configured secret. Only available
when auth.mode is jwt.

Examples:
  TABLERO_TOKEN=$(tablero token 1 --quiet) tablero board watch 3
  tablero token 1 --ttl 1h --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, args, open)
		},
	}

	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runToken(cmd *cobra.Command, args []string, open cli.Opener) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	userID, err := cli.ParseID("user ID", args[0])
	if err != nil {
		formatter.Error(err)
		return err
	}
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		err := cli.UsageError(errors.New("--ttl must be positive"))
		formatter.Error(err)
		return err
	}

	c, err := open(ctx)
	if err != nil {
		formatter.Error(err)
		return err
	}
	defer func() { _ = c.Close() }()

	if _, err := c.App.UserService.GetUser(ctx, userID); err != nil {
		formatter.Error(err)
		return err
	}
	auth, err := api.NewAuth(c.Config.Auth.Mode, []byte(c.Config.Auth.Secret))
	if err != nil {
		formatter.ErrorWithSuggestion(err, "Set auth.secret or TABLERO_JWT_SECRET")
		return err
	}
	token, err := auth.IssueToken(userID, ttl)
	if err != nil {
		formatter.Error(err)
		return err
	}

	res := tokenResult{UserID: userID, Token: token, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
	if formatter.Quiet {
		_, err := fmt.Fprintln(formatter.Out, token)
		return err
	}
	return formatter.Success(res, userID, token)
}
