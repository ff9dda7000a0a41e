package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of an access token. Subject holds the username.
type Claims struct {
	UserID  uint `json:"uid"`
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl is the lifetime of issued tokens.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, leeway: 5 * time.Second, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for the given user.
func (t *TokenIssuer) Issue(userID uint, username string, isAdmin bool) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("auth: empty signing secret")
	}
	now := t.now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        strconv.FormatUint(uint64(userID), 10) + "-" + strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Any failure wraps ErrUnauthenticated.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(t.leeway),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	return claims, nil
}
