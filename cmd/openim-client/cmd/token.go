package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

var (
	tokenDirect   bool
	tokenPlatform int
	parseRemote   bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Obtain or inspect tokens",
}

var tokenAdminCmd = &cobra.Command{
	Use:   "admin [userID]",
	Short: "Print the admin token, acquiring and caching it if needed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := ""
		if len(args) == 1 {
			userID = args[0]
		}
		return withClient(cmd, func(ctx context.Context, client *application.Client) error {
			return runTokenAdmin(ctx, cmd.OutOrStdout(), client, userID, tokenDirect)
		})
	},
}

var tokenUserCmd = &cobra.Command{
	Use:   "user <userID>",
	Short: "Print a user token, acquiring and caching it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *application.Client) error {
			return runTokenUser(ctx, cmd.OutOrStdout(), client, args[0], tokenPlatform, tokenDirect)
		})
	},
}

var tokenParseCmd = &cobra.Command{
	Use:   "parse <token>",
	Short: "Decode a token's claims",
	Long: `Decode a token's claims locally without verifying its signature.
With --remote the token is sent to the server's parse endpoint instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !parseRemote {
			return runTokenParse(cmd.OutOrStdout(), args[0], time.Now())
		}
		return withClient(cmd, func(ctx context.Context, client *application.Client) error {
			return printResult(cmd.OutOrStdout(), client.Auth().ParseToken(ctx, args[0]))
		})
	},
}

func init() {
	tokenAdminCmd.Flags().BoolVar(&tokenDirect, "direct", false, "Ask the server for a fresh token and print the raw response; the cache is not touched")
	tokenUserCmd.Flags().BoolVar(&tokenDirect, "direct", false, "Ask the server for a fresh token and print the raw response; the cache is not touched")
	tokenUserCmd.Flags().IntVar(&tokenPlatform, "platform", 0, "Platform id (default: openim.platform_id)")
	tokenParseCmd.Flags().BoolVar(&parseRemote, "remote", false, "Introspect the token on the server")

	tokenCmd.AddCommand(tokenAdminCmd, tokenUserCmd, tokenParseCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenAdmin(ctx context.Context, w io.Writer, client *application.Client, userID string, direct bool) error {
	if userID == "" {
		userID = client.Tokens().AdminUserID()
	}
	if direct {
		return printResult(w, client.Auth().GetAdminToken(ctx, userID))
	}
	token, err := client.Tokens().AdminToken(ctx, userID)
	if err != nil {
		return printResult(w, domain.AsResult(nil, err))
	}
	return writeJSON(w, map[string]any{"userID": userID, "token": token})
}

func runTokenUser(ctx context.Context, w io.Writer, client *application.Client, userID string, platformID int, direct bool) error {
	if direct {
		return printResult(w, client.Auth().GetUserToken(ctx, userID, platformID))
	}
	token, err := client.Tokens().UserToken(ctx, userID, platformID)
	if err != nil {
		return printResult(w, domain.AsResult(nil, err))
	}
	return writeJSON(w, map[string]any{"userID": userID, "token": token})
}

func runTokenParse(w io.Writer, token string, now time.Time) error {
	claims, err := application.InspectToken(token)
	if err != nil {
		return err
	}
	out := map[string]any{
		"userID":     claims.UserID,
		"platformID": claims.PlatformID,
		"claims":     claims.Raw,
	}
	if claims.ExpiresAt != nil {
		out["expiresAt"] = claims.ExpiresAt.UTC().Format(time.RFC3339)
		out["expired"] = !now.Before(*claims.ExpiresAt)
	}
	return writeJSON(w, out)
}
