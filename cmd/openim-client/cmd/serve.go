package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/openim-client/internal/bootstrap"
	"gitlab.com/timkado/api/openim-client/pkg/contextkeys"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the token broker",
	Long: `Run an HTTP sidecar that hands out cached OpenIM tokens to local services.
Requests must carry the configured broker.api_key in the X-API-Key header.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "app-main")

		app, cleanup, err := bootstrap.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
