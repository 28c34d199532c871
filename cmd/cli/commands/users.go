package commands

import (
	"github.com/spf13/cobra"

	"github.com/climateview/mapgen/internal/types"
)

// GetUsersCmd returns the users command group.
func GetUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(listUsersCmd())
	cmd.AddCommand(createUserCmd())
	return cmd
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := apiClient().GetUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(users)
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		username string
		email    string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := types.CreateUserParams{
				Username: username,
				Email:    email,
				Role:     role,
			}
			if err := params.Validate(); err != nil {
				return err
			}

			resp, err := apiClient().CreateUser(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", "", "Role (user or admin)")
	return cmd
}
