// Package openim is the HTTP transport to the OpenIM server: every call is a
// JSON POST carrying an operationID header and, when authenticated, a token
// header.
package openim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/timkado/api/openim-client/internal/adapters/config"
	"gitlab.com/timkado/api/openim-client/internal/adapters/metrics"
	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/internal/validation"
	"gitlab.com/timkado/api/openim-client/pkg/contextkeys"
	"gitlab.com/timkado/api/openim-client/pkg/crypto"
)

// Header names understood by the remote service.
const (
	HeaderOperationID = "operationID"
	HeaderToken       = "token"
)

// Outcome labels recorded per call.
const (
	outcomeOK          = "ok"
	outcomeRemoteError = "remote_error"
	outcomeValidation  = "validation"
	outcomeTransport   = "transport"
	outcomeDecode      = "decode"
)

const (
	defaultTimeout  = 10 * time.Second
	errorBodyLimit  = 512
	maxResponseSize = 8 << 20
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// WithOperationIDGenerator replaces the uuid generator, for tests.
func WithOperationIDGenerator(gen func() string) Option {
	return func(d *Dispatcher) { d.newOperationID = gen }
}

// Dispatcher sends validated payloads to the remote service and returns the
// decoded envelope without interpreting errCode or data.
type Dispatcher struct {
	host           string
	httpClient     *http.Client
	logger         domain.Logger
	newOperationID func() string
}

// NewDispatcher builds a Dispatcher for the configured host. The HTTP timeout
// comes from http.timeout_ms or http.timeout_seconds unless WithHTTPClient is given.
func NewDispatcher(cfgProvider config.Provider, logger domain.Logger, opts ...Option) (*Dispatcher, error) {
	if cfgProvider == nil || cfgProvider.Get() == nil {
		return nil, errors.New("config is required for the dispatcher")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the dispatcher")
	}
	cfg := cfgProvider.Get()
	host := strings.TrimRight(cfg.OpenIM.Host, "/")
	if host == "" {
		return nil, errors.New("openim.host is required for the dispatcher")
	}

	timeout := cfg.HTTP.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	d := &Dispatcher{
		host:           host,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
		newOperationID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Host returns the base URL calls are sent to.
func (d *Dispatcher) Host() string {
	return d.host
}

// Send validates payload, POSTs it to host+path and decodes the response.
// errMsg is the caller's description used as errMsg of any local failure.
// token is sent in the token header when non-empty.
//
// A returned error is always a *domain.RequestError of kind validation,
// transport or decode. A response with a non-zero errCode is not an error
// here; it is returned as-is.
func (d *Dispatcher) Send(ctx context.Context, path string, payload map[string]any, errMsg, token string) (domain.Result, error) {
	start := time.Now()

	if err := validation.Validate(payload); err != nil {
		d.logger.Debug(ctx, "Payload rejected by validation", "path", path, "error", err.Error())
		metrics.ObserveRequest(path, outcomeValidation, time.Since(start).Seconds())
		return nil, domain.NewValidationError(errMsg, err)
	}

	operationID := d.newOperationID()
	ctx = context.WithValue(ctx, contextkeys.OperationIDKey, operationID)

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.ObserveRequest(path, outcomeValidation, time.Since(start).Seconds())
		return nil, domain.NewValidationError(errMsg, fmt.Errorf("encoding payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.host+path, bytes.NewReader(body))
	if err != nil {
		metrics.ObserveRequest(path, outcomeTransport, time.Since(start).Seconds())
		return nil, &domain.RequestError{Kind: domain.KindTransport, Message: errMsg, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderOperationID, operationID)
	if token != "" {
		req.Header.Set(HeaderToken, token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn(ctx, "Request to remote service failed", "path", path, "token_fp", crypto.Fingerprint(token), "error", err.Error())
		metrics.ObserveRequest(path, outcomeTransport, time.Since(start).Seconds())
		return nil, &domain.RequestError{Kind: domain.KindTransport, Message: errMsg, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		detail := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if s := strings.TrimSpace(string(snippet)); s != "" {
			detail += ": " + s
		}
		d.logger.Warn(ctx, "Remote service returned non-2xx status", "path", path, "status", resp.StatusCode)
		metrics.ObserveRequest(path, outcomeTransport, time.Since(start).Seconds())
		return nil, &domain.RequestError{Kind: domain.KindTransport, Code: resp.StatusCode, Message: errMsg, Detail: detail}
	}

	var result domain.Result
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil || result == nil {
		if err == nil {
			err = errors.New("response body is not a JSON object")
		}
		d.logger.Warn(ctx, "Failed to decode remote response", "path", path, "error", err.Error())
		metrics.ObserveRequest(path, outcomeDecode, time.Since(start).Seconds())
		return nil, &domain.RequestError{Kind: domain.KindDecode, Code: domain.CodeDecode, Message: errMsg, Detail: err.Error(), Err: err}
	}

	outcome := outcomeOK
	if !result.OK() {
		outcome = outcomeRemoteError
	}
	elapsed := time.Since(start)
	metrics.ObserveRequest(path, outcome, elapsed.Seconds())
	d.logger.Debug(ctx, "Remote call completed", "path", path, "outcome", outcome, "latency_ms", elapsed.Milliseconds())

	return result, nil
}
