package middleware

import "context"

// ContextKey is the type of the request-context keys set by this package.
type ContextKey string

const (
	// UserEmailCtxKey holds the authenticated caller's email.
	UserEmailCtxKey = ContextKey("user_email")
	// TokenIDCtxKey holds the jti of the token the request was made with.
	TokenIDCtxKey = ContextKey("token_id")
)

// UserEmail returns the authenticated caller, "" for anonymous requests.
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailCtxKey).(string)
	return email
}

// TokenID returns the jti of the request's token.
func TokenID(ctx context.Context) string {
	jti, _ := ctx.Value(TokenIDCtxKey).(string)
	return jti
}
