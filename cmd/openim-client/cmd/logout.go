package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/openim-client/internal/application"
)

var logoutPlatform int

var logoutCmd = &cobra.Command{
	Use:   "logout <userID>",
	Short: "Force a user offline and drop their cached token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *application.Client) error {
			return printResult(cmd.OutOrStdout(), client.Auth().ForceLogout(ctx, args[0], logoutPlatform))
		})
	},
}

func init() {
	logoutCmd.Flags().IntVar(&logoutPlatform, "platform", 0, "Platform id (default: openim.platform_id)")
	rootCmd.AddCommand(logoutCmd)
}
