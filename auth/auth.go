package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ctxKey string

const identityCtxKey = ctxKey("identity")

// ErrUnauthenticated is returned when no valid bearer token identifies a live user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller as stored in the request context.
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// UserResolver loads the current state of a user by name. It returns an
// error when the user no longer exists, which rejects the token.
type UserResolver func(ctx context.Context, username string) (Identity, error)

// Authenticator turns bearer tokens into request identities.
type Authenticator struct {
	tokens  *TokenIssuer
	resolve UserResolver
}

// NewAuthenticator creates an authenticator. The admin flag always comes from
// resolve, never from the token, so revoking admin rights takes effect at once.
func NewAuthenticator(tokens *TokenIssuer, resolve UserResolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolve: resolve}
}

// Authenticate verifies a raw token and resolves its user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	id, err := a.resolve(ctx, claims.Subject)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthenticated, err)
	}
	// A username reused after deletion belongs to a different account.
	if id.UserID != claims.UserID {
		return Identity{}, fmt.Errorf("%w: token user %d does not match %q", ErrUnauthenticated, claims.UserID, claims.Subject)
	}
	return id, nil
}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext extracts the identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok && id.UserID != 0
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware attaches the caller identity to the request context when a
// valid bearer token is present. Requests without one pass through untouched.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := BearerToken(r); ok {
			if id, err := a.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without an identity with 401 and a Bearer challenge.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthenticated","message":"Could not validate credentials"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
