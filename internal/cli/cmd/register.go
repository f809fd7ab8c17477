package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var registerFlags struct {
	username string
	email    string
	password string
	company  string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := registerFlags.password
		if password == "" {
			var err error
			if password, err = readLine(cmd.InOrStdin(), "Password: "); err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
		}

		var resp api.AuthResponse
		body := map[string]string{
			"username":    registerFlags.username,
			"email":       registerFlags.email,
			"password":    password,
			"companyName": registerFlags.company,
		}
		if err := apiClient.Post("/auth/register", body, &resp); err != nil {
			return fmt.Errorf("registering: %w", err)
		}

		if err := sess.Login(resp.Token, resp.User, now()); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		if flagJSON {
			output.JSON(resp.User)
			return nil
		}
		printf("Registered and logged in as %s (%s)\n", resp.User.Username, resp.User.Email)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerFlags.username, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerFlags.email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerFlags.password, "password", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerFlags.company, "company", "", "Company name")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(registerCmd)
}
