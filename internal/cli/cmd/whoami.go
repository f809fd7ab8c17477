package cmd

import (
	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if sess.User == nil {
			user, err := apiClient.Me()
			if err != nil {
				return err
			}
			sess.User = user
		}

		if flagJSON {
			output.JSON(sess.User)
			return nil
		}
		output.UserInfo(*sess.User)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
