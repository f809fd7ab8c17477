package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		printf("Logged out.\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
