package utils

// Context keys set by the middleware.
const (
	ContextKeyUID       = "uid"
	ContextKeyEmail     = "email"
	ContextKeyIsAdmin   = "is_admin"
	ContextKeyRequestID = "request_id"
)

// Headers
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserEmail = "X-User-Email"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrUserNotFound     = "user not found"
	ErrInvalidToken     = "invalid token"
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
	ErrRunInProgress    = "a team count run is already in progress"
	ErrStoreUnavailable = "user store unavailable"
)
