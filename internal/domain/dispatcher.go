package domain

import "context"

// RequestSender sends one authenticated call to the remote service.
// Local failures (validation, transport, decode) are returned as
// *RequestError; a remote errCode is left in the Result for the caller.
type RequestSender interface {
	Send(ctx context.Context, path string, payload map[string]any, errMsg, token string) (Result, error)
}
