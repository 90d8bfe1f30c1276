// Package identity resolves bearer tokens into principals. Production
// deployments verify Firebase Auth ID tokens; local development signs its
// own HMAC tokens.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("identity: missing token")
	// ErrInvalidToken indicates the token failed verification.
	ErrInvalidToken = errors.New("identity: invalid token")
)

// Principal is the verified caller.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// Verifier turns a raw token into a principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
