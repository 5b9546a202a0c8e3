package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gitlab.com/timkado/api/openim-client/internal/application"
	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/crypto"
)

const maxRequestBody = 64 << 10

// AdminTokenRequest is the payload for POST /v1/tokens/admin.
type AdminTokenRequest struct {
	UserID string `json:"userID"`
}

// UserTokenRequest is the payload for POST /v1/tokens/user and /v1/tokens/logout.
type UserTokenRequest struct {
	UserID     string `json:"userID"`
	PlatformID int    `json:"platformID"`
}

// ClearTokenRequest is the payload for POST /v1/tokens/clear.
type ClearTokenRequest struct {
	UserID  string `json:"userID"`
	IsAdmin bool   `json:"isAdmin"`
}

// TokenHandlers serves cached tokens to processes that cannot hold the
// OpenIM secret themselves.
type TokenHandlers struct {
	client *application.Client
	logger domain.Logger
}

// NewTokenHandlers creates the broker handlers.
func NewTokenHandlers(client *application.Client, logger domain.Logger) *TokenHandlers {
	return &TokenHandlers{client: client, logger: logger}
}

// Register mounts the handlers on mux.
func (h *TokenHandlers) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("POST /v1/tokens/admin", wrap(http.HandlerFunc(h.AdminToken)))
	mux.Handle("POST /v1/tokens/user", wrap(http.HandlerFunc(h.UserToken)))
	mux.Handle("POST /v1/tokens/logout", wrap(http.HandlerFunc(h.ForceLogout)))
	mux.Handle("POST /v1/tokens/clear", wrap(http.HandlerFunc(h.ClearToken)))
}

// AdminToken returns the cached admin token, acquiring it when missing.
func (h *TokenHandlers) AdminToken(w http.ResponseWriter, r *http.Request) {
	var req AdminTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = h.client.Tokens().AdminUserID()
	}

	token, err := h.client.Tokens().AdminToken(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "Served admin token", "user_id", userID, "token_fp", crypto.Fingerprint(token))
	domain.SuccessResult(map[string]any{"userID": userID, "token": token}).WriteJSON(w, http.StatusOK)
}

// UserToken returns the cached token of a user, acquiring it when missing.
func (h *TokenHandlers) UserToken(w http.ResponseWriter, r *http.Request) {
	var req UserTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		domain.ErrorResult(http.StatusBadRequest, "userID is required", "").WriteJSON(w, http.StatusBadRequest)
		return
	}

	token, err := h.client.Tokens().UserToken(r.Context(), req.UserID, req.PlatformID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "Served user token", "user_id", req.UserID, "token_fp", crypto.Fingerprint(token))
	domain.SuccessResult(map[string]any{"userID": req.UserID, "token": token}).WriteJSON(w, http.StatusOK)
}

// ForceLogout kicks a user and forgets its cached token. The remote
// envelope is relayed as-is.
func (h *TokenHandlers) ForceLogout(w http.ResponseWriter, r *http.Request) {
	var req UserTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		domain.ErrorResult(http.StatusBadRequest, "userID is required", "").WriteJSON(w, http.StatusBadRequest)
		return
	}

	res := h.client.Auth().ForceLogout(r.Context(), req.UserID, req.PlatformID)
	h.logger.Info(r.Context(), "Force logout relayed", "user_id", req.UserID, "ok", res.OK())
	res.WriteJSON(w, http.StatusOK)
}

// ClearToken drops one cached token without contacting the remote service.
func (h *TokenHandlers) ClearToken(w http.ResponseWriter, r *http.Request) {
	var req ClearTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		domain.ErrorResult(http.StatusBadRequest, "userID is required", "").WriteJSON(w, http.StatusBadRequest)
		return
	}

	if err := h.client.Manager().ClearToken(r.Context(), req.UserID, req.IsAdmin); err != nil {
		h.logger.Error(r.Context(), "Failed to clear cached token", "user_id", req.UserID, "error", err.Error())
		domain.ErrorResult(http.StatusInternalServerError, "failed to clear token", err.Error()).WriteJSON(w, http.StatusInternalServerError)
		return
	}
	domain.SuccessResult(map[string]any{"userID": req.UserID, "isAdmin": req.IsAdmin}).WriteJSON(w, http.StatusOK)
}

func (h *TokenHandlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn(r.Context(), "Failed to decode broker request", "path", r.URL.Path, "error", err.Error())
		domain.ErrorResult(http.StatusBadRequest, "Invalid request payload", err.Error()).WriteJSON(w, http.StatusBadRequest)
		return false
	}
	return true
}

func (h *TokenHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		h.logger.Warn(r.Context(), "Broker request cancelled", "path", r.URL.Path, "error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindAuthUnavailable:
		status = http.StatusBadGateway
	case domain.KindValidation:
		status = http.StatusBadRequest
	}
	domain.AsResult(nil, err).WriteJSON(w, status)
}
