package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with your event server",
	Long: `Log in with email and password. The session is stored in your user
config directory and re-checked with the server every few minutes.

  eventctl login --email alice@example.com
  eventctl login --email alice@example.com --server https://events.example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := flagPassword
	if password == "" {
		var err error
		if password, err = readLine(cmd.InOrStdin(), "Password: "); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	client := api.NewClient(sess.ServerURL, "")
	var resp api.AuthResponse
	if err := client.Post("/auth/login", map[string]string{"email": flagEmail, "password": password}, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("login failed: %s", apiErr.Message)
		}
		return fmt.Errorf("logging in: %w", err)
	}

	if err := sess.Login(resp.Token, resp.User, now()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if flagJSON {
		output.JSON(resp.User)
		return nil
	}
	printf("Logged in as %s (%s)\n", resp.User.Username, resp.User.Email)
	return nil
}
