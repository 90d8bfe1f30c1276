package identity

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/auth"
)

// AdminClaim is the custom claim that marks administrators.
const AdminClaim = "admin"

// IDTokenVerifier is the subset of *auth.Client used for verification.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier verifies Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client IDTokenVerifier
	logger *slog.Logger
}

// NewFirebaseVerifier wraps an auth client obtained from firebase.App.Auth.
func NewFirebaseVerifier(client IDTokenVerifier, logger *slog.Logger) *FirebaseVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FirebaseVerifier{client: client, logger: logger}
}

// Verify checks the token signature and expiry with Firebase and reads the
// email and admin claims.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		v.logger.DebugContext(ctx, "firebase token rejected", "error", err)
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if decoded.UID == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	principal := Principal{UserID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		principal.Email = email
	}
	if admin, ok := decoded.Claims[AdminClaim].(bool); ok {
		principal.IsAdmin = admin
	}
	return principal, nil
}
