// Package cmd holds the openim-client command tree.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/bootstrap"
	"gitlab.com/timkado/api/openim-client/pkg/contextkeys"
)

const logLevelEnv = "OPENIM_CLIENT_LOG_LEVEL"

var (
	logLevel string
	envFile  string
)

// newClient builds the client used by every one-shot command. Tests swap it.
var newClient = func(ctx context.Context) (*application.Client, func(), error) {
	return bootstrap.InitializeClient(ctx)
}

var rootCmd = &cobra.Command{
	Use:   "openim-client",
	Short: "OpenIM credential cache and request dispatcher",
	Long: `openim-client obtains and caches OpenIM admin and user tokens and sends
validated requests to an OpenIM server.

Configuration is read from config.yaml (VIPER_CONFIG_PATH, VIPER_CONFIG_NAME)
and OPENIM_CLIENT_* environment variables, e.g.:
  OPENIM_CLIENT_OPENIM_HOST    OpenIM API address (default: http://127.0.0.1:10002)
  OPENIM_CLIENT_OPENIM_SECRET  shared secret used to mint admin tokens
  OPENIM_CLIENT_CACHE_BACKEND  file | redis | memory (default: file)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
		level := logLevel
		if level == "" && os.Getenv(logLevelEnv) == "" && cmd.Name() != "serve" {
			// Keep stdout clean for command output.
			level = "error"
		}
		if level != "" {
			return os.Setenv(logLevelEnv, level)
		}
		return nil
	},
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides "+logLevelEnv+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration")
}

// withClient builds a client for one command invocation.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *application.Client) error) error {
	ctx := context.WithValue(cmd.Context(), contextkeys.RequestIDKey, "cli-"+cmd.Name())
	client, cleanup, err := newClient(ctx)
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}
	defer cleanup()
	return fn(ctx, client)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
