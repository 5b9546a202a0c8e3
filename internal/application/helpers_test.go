package application

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/adapters/logger"
	"gitlab.com/timkado/api/openim-client/internal/adapters/memcache"
	"gitlab.com/timkado/api/openim-client/internal/adapters/openim"
	"gitlab.com/timkado/api/openim-client/internal/domain"
)

type fakeRequest struct {
	Path        string
	OperationID string
	Token       string
	Body        map[string]any
}

// fakeOpenIM answers requests in-process; responders are keyed by path.
type fakeOpenIM struct {
	mu         sync.Mutex
	requests   []fakeRequest
	responders map[string]func(req fakeRequest) (int, string)
	delay      time.Duration
}

func newFakeOpenIM() *fakeOpenIM {
	return &fakeOpenIM{responders: map[string]func(fakeRequest) (int, string){}}
}

func (f *fakeOpenIM) on(path string, fn func(req fakeRequest) (int, string)) {
	f.mu.Lock()
	f.responders[path] = fn
	f.mu.Unlock()
}

func (f *fakeOpenIM) reply(path, body string) {
	f.on(path, func(fakeRequest) (int, string) { return http.StatusOK, body })
}

func (f *fakeOpenIM) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeOpenIM) last(path string) fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Path == path {
			return f.requests[i]
		}
	}
	return fakeRequest{}
}

func (f *fakeOpenIM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := fakeRequest{
		Path:        r.URL.Path,
		OperationID: r.Header.Get(openim.HeaderOperationID),
		Token:       r.Header.Get(openim.HeaderToken),
	}
	_ = json.NewDecoder(r.Body).Decode(&req.Body)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.responders[req.Path]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fn == nil {
		http.NotFound(w, r)
		return
	}
	status, body := fn(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// httpClientFor routes every request to handler regardless of host.
func httpClientFor(handler http.Handler) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec.Result(), nil
	})}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	server  *fakeOpenIM
	clock   *fakeClock
	cache   *memcache.Cache
	cfg     config.Provider
	sender  *openim.Dispatcher
	manager *TokenManager
	tokens  *TokenService
	client  *Client
}

func testConfig() *config.Config {
	return &config.Config{
		OpenIM: config.OpenIMConfig{Host: "http://svc", Secret: "s1", AdminUserID: "imAdmin", PlatformID: 1},
		Cache:  config.CacheConfig{Backend: config.CacheBackendMemory, DefaultTokenTTLSeconds: 86400, RefreshLockTTLSeconds: 5, RefreshLockRetryDelayMs: 10},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
	}
}

func newHarness(t *testing.T, locker domain.RefreshLocker) *harness {
	t.Helper()
	h := &harness{
		server: newFakeOpenIM(),
		clock:  &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		cfg:    config.NewStaticProvider(testConfig()),
	}
	log := logger.NewNop()

	h.cache = memcache.New(log, memcache.WithClock(h.clock.Now), memcache.WithSweepInterval(time.Hour))
	t.Cleanup(h.cache.Close)

	var err error
	h.sender, err = openim.NewDispatcher(h.cfg, log, openim.WithHTTPClient(httpClientFor(h.server)))
	require.NoError(t, err)

	h.manager, err = NewTokenManager(h.cache, log, time.Duration(h.cfg.Get().Cache.DefaultTokenTTLSeconds)*time.Second)
	require.NoError(t, err)

	h.tokens, err = NewTokenService(h.manager, h.sender, locker, h.cfg, log)
	require.NoError(t, err)
	h.tokens.now = h.clock.Now

	h.client, err = NewClient(h.cfg, h.cache, h.sender, h.tokens, log)
	require.NoError(t, err)
	return h
}

const (
	adminTokenOK = `{"errCode":0,"errMsg":"","data":{"token":"T1","expireTimeSeconds":100}}`
	userTokenOK  = `{"errCode":0,"errMsg":"","data":{"token":"U1","expireTimeSeconds":3600}}`
)
