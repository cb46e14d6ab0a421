package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	tokenHeader   = "Authorization"
	tokenPrefix   = "Bearer "
	UserClaimsKey = contextKey("user_claims")
	UserIDKey     = contextKey("user_id")
	WalletKey     = contextKey("wallet_address")
)

// ErrNoIdentity is returned when no authenticated identity is present in
// the context.
var ErrNoIdentity = errors.New("no authenticated user in context")

// Middleware returns an HTTP middleware that resolves the caller's identity
// from the Authorization header and injects it into the request context.
func Middleware(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(tokenHeader) == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			ctx, errMsg := resolveIdentity(signer, r)
			if errMsg != "" {
				http.Error(w, errMsg, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware resolves the caller's identity when an Authorization
// header is present but lets anonymous requests through. A supplied token
// must still be valid. Handlers that require identity get ErrNoIdentity
// from GetUserID on anonymous requests.
func OptionalMiddleware(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(tokenHeader) == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, errMsg := resolveIdentity(signer, r)
			if errMsg != "" {
				http.Error(w, errMsg, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveIdentity validates the bearer token and returns a context carrying
// the caller's identity, or the JSON error body to reject with.
func resolveIdentity(signer *Signer, r *http.Request) (context.Context, string) {
	authHeader := r.Header.Get(tokenHeader)
	if !strings.HasPrefix(authHeader, tokenPrefix) {
		return nil, `{"error":"invalid authorization header format"}`
	}

	token := strings.TrimPrefix(authHeader, tokenPrefix)
	claims, err := signer.ValidateToken(token)
	if err != nil {
		return nil, `{"error":"invalid or expired token"}`
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, `{"error":"invalid or expired token"}`
	}

	// Inject identity into context
	ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, WalletKey, claims.WalletAddress)
	return ctx, ""
}

// GetUserClaims retrieves the full claims from the context.
func GetUserClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// GetUserID retrieves the authenticated user's id from the context.
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}

// GetWalletAddress retrieves the authenticated user's wallet address from
// the context.
func GetWalletAddress(ctx context.Context) (string, bool) {
	wallet, ok := ctx.Value(WalletKey).(string)
	return wallet, ok
}
