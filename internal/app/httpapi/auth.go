package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type contextKey string

const callerKey contextKey = "caller"

// callerHeader attributes requests when JWT auth is disabled. Local
// development only.
const callerHeader = "X-Caller"

// Auth attributes HTTP callers to pool identities. With a secret configured
// it validates HS256 bearer tokens and uses the subject claim as the caller
// address; without one it trusts the X-Caller header.
type Auth struct {
	secret []byte
}

// NewAuth builds the auth layer. An empty secret disables token validation.
func NewAuth(secret string) Auth {
	if secret == "" {
		return Auth{}
	}
	return Auth{secret: []byte(secret)}
}

// Enabled reports whether bearer tokens are required.
func (a Auth) Enabled() bool { return len(a.secret) > 0 }

// IssueToken mints a bearer token for the given caller address.
func (a Auth) IssueToken(caller string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("auth disabled")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   caller,
		Issuer:    "claims-layer",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware returns the router middleware that resolves and injects the
// caller identity.
func (a Auth) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := a.resolve(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func (a Auth) resolve(r *http.Request) (string, error) {
	if !a.Enabled() {
		caller := strings.TrimSpace(r.Header.Get(callerHeader))
		if caller == "" {
			return "", fmt.Errorf("missing %s header", callerHeader)
		}
		return caller, nil
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token subject")
	}
	return claims.Subject, nil
}

// WithCaller stores the attributed caller on the context.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom returns the attributed caller, or empty when unattributed.
func CallerFrom(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey).(string); ok {
		return caller
	}
	return ""
}
