package mocks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"gitlab.com/timkado/api/openim-client/pkg/endpoints"
)

// MockOpenIM is an in-process OpenIM stand-in. Token endpoints mint a new
// token per call; every other path answers errCode 0 with an empty data
// object.
type MockOpenIM struct {
	Server *httptest.Server

	// Latency is added to every response.
	Latency time.Duration

	AdminTokenCalls atomic.Int64
	UserTokenCalls  atomic.Int64
	OtherCalls      atomic.Int64
}

// NewMockOpenIM starts the server; call Close when done.
func NewMockOpenIM() *MockOpenIM {
	m := &MockOpenIM{}
	m.Server = httptest.NewServer(m)
	return m
}

// URL is the server's base address.
func (m *MockOpenIM) URL() string {
	return m.Server.URL
}

// Close stops the server.
func (m *MockOpenIM) Close() {
	m.Server.Close()
}

func (m *MockOpenIM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}
	w.Header().Set("Content-Type", "application/json")

	var data map[string]any
	switch r.URL.Path {
	case endpoints.GetAdminToken:
		n := m.AdminTokenCalls.Add(1)
		data = map[string]any{"token": fmt.Sprintf("admin-%d", n), "expireTimeSeconds": 3600}
	case endpoints.GetUserToken:
		n := m.UserTokenCalls.Add(1)
		data = map[string]any{"token": fmt.Sprintf("user-%d", n), "expireTimeSeconds": 3600}
	default:
		m.OtherCalls.Add(1)
		data = map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"errCode": 0, "errMsg": "", "data": data})
}
