package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
	"gitlab.com/timkado/api/openim-client/pkg/openim"
)

type seenRequest struct {
	path  string
	token string
	body  map[string]any
}

// stubServer stands in for OpenIM and records what it was sent.
type stubServer struct {
	mu   sync.Mutex
	seen []seenRequest
}

func (s *stubServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := seenRequest{path: r.URL.Path, token: r.Header.Get("token")}
	_ = json.NewDecoder(r.Body).Decode(&req.body)
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()

	switch r.URL.Path {
	case endpoints.GetAdminToken:
		_, _ = w.Write([]byte(`{"errCode":0,"errMsg":"","data":{"token":"ADMIN","expireTimeSeconds":100}}`))
	case endpoints.GetUserToken:
		_, _ = w.Write([]byte(`{"errCode":0,"errMsg":"","data":{"token":"USER","expireTimeSeconds":100}}`))
	case endpoints.ForceLogout, endpoints.GetUsers, endpoints.GetSelfUserInfo:
		_, _ = w.Write([]byte(`{"errCode":0,"errMsg":"","data":{}}`))
	default:
		_, _ = w.Write([]byte(`{"errCode":1004,"errMsg":"RecordNotFoundError"}`))
	}
}

func (s *stubServer) requests(path string) []seenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []seenRequest
	for _, r := range s.seen {
		if r.path == path {
			out = append(out, r)
		}
	}
	return out
}

// useStubClient points every command at an in-memory client talking to a
// stub server for the duration of the test.
func useStubClient(t *testing.T) *stubServer {
	t.Helper()
	stub := &stubServer{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := openim.New(openim.Config{Host: srv.URL, Secret: "s1"}, openim.WithMemoryCache())
	require.NoError(t, err)

	original := newClient
	newClient = func(context.Context) (*application.Client, func(), error) {
		return client, client.Close, nil
	}
	t.Cleanup(func() { newClient = original })
	t.Setenv(logLevelEnv, "error")
	return stub
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(logLevelEnv, "error")
	tokenDirect, tokenPlatform, parseRemote = false, 0, false
	logoutPlatform = 0
	callAs, callToken = "admin", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeOutput(t *testing.T, out string) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed), "output is not valid JSON: %s", out)
	return parsed
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return signed
}

func TestTokenParse_Local(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{"UserID": "u1", "PlatformID": 2, "exp": exp.Unix()})

	var out bytes.Buffer
	require.NoError(t, runTokenParse(&out, token, exp.Add(-time.Minute)))

	parsed := decodeOutput(t, out.String())
	assert.Equal(t, "u1", parsed["userID"])
	assert.EqualValues(t, 2, parsed["platformID"])
	assert.Equal(t, "2030-01-02T03:04:05Z", parsed["expiresAt"])
	assert.Equal(t, false, parsed["expired"])

	out.Reset()
	require.NoError(t, runTokenParse(&out, token, exp))
	assert.Equal(t, true, decodeOutput(t, out.String())["expired"])
}

func TestTokenParse_RejectsGarbage(t *testing.T) {
	_, err := execute(t, "token", "parse", "not-a-jwt")
	require.Error(t, err)
}

func TestTokenAdminCommand(t *testing.T) {
	stub := useStubClient(t)

	out, err := execute(t, "token", "admin")
	require.NoError(t, err)
	parsed := decodeOutput(t, out)
	assert.Equal(t, "imAdmin", parsed["userID"])
	assert.Equal(t, "ADMIN", parsed["token"])

	reqs := stub.requests(endpoints.GetAdminToken)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"userID": "imAdmin", "secret": "s1"}, reqs[0].body)
	assert.Empty(t, reqs[0].token)
}

func TestTokenUserCommand(t *testing.T) {
	stub := useStubClient(t)

	out, err := execute(t, "token", "user", "u1", "--platform", "5")
	require.NoError(t, err)
	assert.Equal(t, "USER", decodeOutput(t, out)["token"])

	reqs := stub.requests(endpoints.GetUserToken)
	require.Len(t, reqs, 1)
	assert.Equal(t, "ADMIN", reqs[0].token)
	assert.EqualValues(t, 5, reqs[0].body["platformID"])
}

func TestTokenUserCommand_Direct(t *testing.T) {
	useStubClient(t)

	out, err := execute(t, "token", "user", "u1", "--direct")
	require.NoError(t, err)
	parsed := decodeOutput(t, out)
	assert.EqualValues(t, 0, parsed["errCode"])
	assert.Equal(t, "USER", parsed["data"].(map[string]any)["token"])
}

func TestLogoutCommand(t *testing.T) {
	stub := useStubClient(t)

	_, err := execute(t, "logout", "u1")
	require.NoError(t, err)

	reqs := stub.requests(endpoints.ForceLogout)
	require.Len(t, reqs, 1)
	assert.Equal(t, "ADMIN", reqs[0].token)
	assert.Equal(t, "u1", reqs[0].body["userID"])
	assert.EqualValues(t, 1, reqs[0].body["platformID"])
}

func TestCallCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantPath  string
		wantToken string
	}{
		{"as admin", []string{"call", endpoints.GetUsers, `{"pagination":{"pageNumber":1,"showNumber":10}}`}, endpoints.GetUsers, "ADMIN"},
		{"path without slash", []string{"call", "user/get_users"}, endpoints.GetUsers, "ADMIN"},
		{"as user", []string{"call", endpoints.GetSelfUserInfo, `{"userID":"u1"}`, "--as", "user:u1"}, endpoints.GetSelfUserInfo, "USER"},
		{"explicit token", []string{"call", endpoints.GetUsers, "{}", "--token", "MINE"}, endpoints.GetUsers, "MINE"},
		{"anonymous", []string{"call", endpoints.GetUsers, "--as", "none"}, endpoints.GetUsers, ""},
		{"enumerated value written as decimal", []string{"call", endpoints.GetUsers, `{"gender":1.0}`}, endpoints.GetUsers, "ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := useStubClient(t)

			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.EqualValues(t, 0, decodeOutput(t, out)["errCode"])

			reqs := stub.requests(tt.wantPath)
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.wantToken, reqs[0].token)
		})
	}
}

func TestCallCommand_Failures(t *testing.T) {
	t.Run("validation fault is printed and makes no call", func(t *testing.T) {
		stub := useStubClient(t)

		out, err := execute(t, "call", endpoints.GetSelfUserInfo, `{"userID":"`+strings.Repeat("x", 65)+`"}`)
		require.Error(t, err)
		parsed := decodeOutput(t, out)
		assert.EqualValues(t, 400, parsed["errCode"])
		assert.Empty(t, stub.requests(endpoints.GetSelfUserInfo))
	})

	t.Run("remote error code", func(t *testing.T) {
		useStubClient(t)

		out, err := execute(t, "call", "/group/get_groups_info", `{"groupIDs":["g1"]}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "errCode 1004")
		assert.EqualValues(t, 1004, decodeOutput(t, out)["errCode"])
	})

	t.Run("payload must be an object", func(t *testing.T) {
		useStubClient(t)

		_, err := execute(t, "call", endpoints.GetUsers, `[1,2]`)
		require.Error(t, err)
	})

	t.Run("unknown identity", func(t *testing.T) {
		useStubClient(t)

		_, err := execute(t, "call", endpoints.GetUsers, "--as", "root")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown identity")
	})
}

func TestParsePayload(t *testing.T) {
	payload, err := parsePayload("  ")
	require.NoError(t, err)
	assert.Empty(t, payload)

	payload, err = parsePayload("null")
	require.NoError(t, err)
	assert.NotNil(t, payload)

	payload, err = parsePayload(`{"n": 12345678901234567890}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), payload["n"])
}
