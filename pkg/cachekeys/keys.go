package cachekeys

import (
	"fmt"
)

// AdminTokenKey generates the cache key for a privileged token.
func AdminTokenKey(userID string) string {
	return fmt.Sprintf("admin_token_%s", userID)
}

// UserTokenKey generates the cache key for an end-user token.
// Admin and user keys never collide even when the IDs are equal.
func UserTokenKey(userID string) string {
	return fmt.Sprintf("user_token_%s", userID)
}

// TokenKey picks AdminTokenKey or UserTokenKey.
func TokenKey(userID string, isAdmin bool) string {
	if isAdmin {
		return AdminTokenKey(userID)
	}
	return UserTokenKey(userID)
}

// RefreshLockKey generates the key of the cross-process lock guarding
// acquisition of the token stored under tokenKey.
func RefreshLockKey(tokenKey string) string {
	return fmt.Sprintf("token_refresh_lock:%s", tokenKey)
}
