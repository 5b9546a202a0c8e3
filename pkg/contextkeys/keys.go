package contextkeys

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for the id of an inbound broker request.
	RequestIDKey contextKey = "request_id"

	// OperationIDKey is the context key for the per-call tracking id sent
	// to the remote service in the operationID header.
	OperationIDKey contextKey = "operation_id"

	// UserIDKey is the context key for the subject a token operation is for.
	UserIDKey contextKey = "user_id"

	// TokenKindKey is the context key for the kind of token being handled.
	TokenKindKey contextKey = "token_kind"
)

// String makes contextKey satisfy fmt.Stringer to help with debugging/logging of keys themselves.
func (c contextKey) String() string {
	return string(c)
}
