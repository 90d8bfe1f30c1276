package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const localIssuer = "classroom-scheduler"

type localClaims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// LocalVerifier issues and verifies HS256 tokens signed with a shared secret.
type LocalVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLocalVerifier returns a verifier for tokens signed with secret.
func NewLocalVerifier(secret string, ttl time.Duration) (*LocalVerifier, error) {
	if secret == "" {
		return nil, errors.New("identity: local secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &LocalVerifier{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for principal.
func (v *LocalVerifier) Issue(principal Principal) (string, error) {
	if principal.UserID == "" {
		return "", errors.New("identity: principal has no user id")
	}
	now := v.now()
	claims := &localClaims{
		Email: principal.Email,
		Admin: principal.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses token and returns its principal.
func (v *LocalVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(localIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, Email: claims.Email, IsAdmin: claims.Admin}, nil
}
