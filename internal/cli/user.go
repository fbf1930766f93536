package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/wire"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userActiveCmd("activate", true))
	cmd.AddCommand(userActiveCmd("deactivate", false))
	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			return withContainer(cmd, func(c *wire.Container) error {
				return c.UserAdapter(os.Stdout).Create(cmd.Context(), email, name, password, role)
			})
		},
	}
	cmd.Flags().String("email", "", "login email (required)")
	cmd.Flags().String("name", "", "display name (required)")
	cmd.Flags().String("password", "", "initial password (required)")
	cmd.Flags().String("role", "WORKER", "ADMIN, MANAGER or WORKER")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *wire.Container) error {
				return c.UserAdapter(os.Stdout).List(cmd.Context())
			})
		},
	}
}

func userActiveCmd(use string, active bool) *cobra.Command {
	short := "Allow a user to log in"
	if !active {
		short = "Prevent a user from logging in"
	}
	return &cobra.Command{
		Use:   use + " [user-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(c *wire.Container) error {
				return c.UserAdapter(os.Stdout).SetActive(cmd.Context(), id, active)
			})
		},
	}
}
