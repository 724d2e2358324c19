package auth

import "context"

type contextKey string

const (
	currentUserKey contextKey = "current_user"
	userRolesKey   contextKey = "user_roles"
	requestIDKey   contextKey = "request_id"
)

// GetCurrentUser retrieves the current user ID from the context.
// Returns an empty string if no user is authenticated.
func GetCurrentUser(ctx context.Context) string {
	id, _ := ctx.Value(currentUserKey).(string)
	return id
}

// GetUserID is an alias for GetCurrentUser for backwards compatibility.
func GetUserID(ctx context.Context) string {
	return GetCurrentUser(ctx)
}

// SetCurrentUser adds the user ID to the context.
// Returns a new context with the user ID set.
func SetCurrentUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, currentUserKey, userID)
}

// GetUserRoles retrieves the authenticated user's roles from the context.
func GetUserRoles(ctx context.Context) []string {
	roles, _ := ctx.Value(userRolesKey).([]string)
	return roles
}

// SetUserRoles adds the user's roles to the context.
func SetUserRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, userRolesKey, roles)
}

// SetRequestID adds a request ID to the context for log correlation.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
