// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// ClientIDHeader identifies the browser/device whose client state is addressed.
	ClientIDHeader = "X-Client-ID"
	// IDTokenHeader carries the backend auth ID token on client-state requests.
	IDTokenHeader = "X-ID-Token"
	// UserIDKey is the context key for storing the authenticated user's ID
	UserIDKey = "userID"
	// UserRoleKey is the context key for storing the authenticated user's role
	UserRoleKey = "userRole"
	// ClientIDKey is the context key for the validated client id
	ClientIDKey = "clientID"

	RoleUser  = "user"
	RoleAdmin = "admin"
)
