package user

import (
	"fmt"
	"os"
	osuser "os/user"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
	userservice "github.com/thenoetrevino/tablero/internal/services/user"
)

// UserCmd returns the user command group
func UserCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	cmd.AddCommand(CreateCmd(open))

	return cmd
}

// CreateCmd returns the user create subcommand
func CreateCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Long: `Register a user in the local database. The printed ID is what --as,
TABLERO_USER and tablero token expect.

Examples:
  tablero user create --email ada@example.com --nickname ada

  # Nickname defaults to the login name
  tablero user create --email ada@example.com
  export TABLERO_USER=$(tablero user create --email ada@example.com --nickname ada --quiet)
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, open)
		},
	}

	cmd.Flags().String("email", "", "Email address (required)")
	cmd.Flags().String("nickname", "", "Display name (default: login name)")
	_ = cmd.MarkFlagRequired("email")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(cmd *cobra.Command, open cli.Opener) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	email, _ := cmd.Flags().GetString("email")
	nickname, _ := cmd.Flags().GetString("nickname")
	if nickname == "" {
		nickname = loginName()
	}

	c, err := open(ctx)
	if err != nil {
		formatter.Error(err)
		return err
	}
	defer func() { _ = c.Close() }()

	u, err := c.App.UserService.Register(ctx, userservice.RegisterRequest{Email: email, Nickname: nickname})
	if err != nil {
		formatter.Error(err)
		return err
	}
	return formatter.Success(u, u.ID, fmt.Sprintf("Created user #%d %s <%s>", u.ID, u.Nickname, u.Email))
}

// loginName returns the OS user name, falling back to $USER.
func loginName() string {
	if u, err := osuser.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
