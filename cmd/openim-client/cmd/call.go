package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/openim-client/internal/application"
)

var (
	callAs    string
	callToken string
)

var callCmd = &cobra.Command{
	Use:   "call <path> [json|-]",
	Short: "Send a request to any OpenIM endpoint",
	Long: `Send a JSON payload to an OpenIM endpoint and print the response envelope.
The payload is read from the second argument, or from stdin when it is "-".

  openim-client call /user/get_users '{"pagination":{"pageNumber":1,"showNumber":10}}'
  openim-client call /user/get_self_user_info '{"userID":"u1"}' --as user:u1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := "{}"
		if len(args) == 2 {
			raw = args[1]
		}
		if raw == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			raw = string(data)
		}
		payload, err := parsePayload(raw)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, client *application.Client) error {
			return runCall(ctx, cmd.OutOrStdout(), client, args[0], payload, callAs, callToken)
		})
	},
}

func init() {
	callCmd.Flags().StringVar(&callAs, "as", "admin", `Identity to authenticate as: "admin", "user:<userID>" or "none"`)
	callCmd.Flags().StringVar(&callToken, "token", "", "Send this token instead of a cached one")
	rootCmd.AddCommand(callCmd)
}

func parsePayload(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func runCall(ctx context.Context, w io.Writer, client *application.Client, path string, payload map[string]any, as, token string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	errMsg := "call " + path + " failed"

	if token != "" {
		return printResult(w, client.Call(ctx, path, payload, errMsg, token))
	}
	switch {
	case as == "" || as == "admin":
		return printResult(w, client.CallAsAdmin(ctx, path, payload, errMsg))
	case as == "none":
		return printResult(w, client.Call(ctx, path, payload, errMsg, ""))
	case strings.HasPrefix(as, "user:") && len(as) > len("user:"):
		return printResult(w, client.CallAsUser(ctx, strings.TrimPrefix(as, "user:"), path, payload, errMsg))
	}
	return fmt.Errorf(`unknown identity %q: want "admin", "user:<userID>" or "none"`, as)
}
