// Package auth resolves the acknowledger identity for the decision API.
// The core only consumes "is this acknowledger identified"; session
// issuance and second factors live outside this service.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/api"
)

// Claims are the JWT claims expected on decision API requests.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Principal is the resolved acknowledger identity.
type Principal struct {
	ID    string
	Name  string
	Roles []string
}

type principalKey struct{}

// FromContext returns the principal resolved by the middleware, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Validator validates bearer tokens with an HMAC secret.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator. An empty secret disables validation
// and is only acceptable in development; callers decide.
func NewValidator(secret []byte) *Validator {
	return &Validator{secret: secret}
}

// Validate parses and verifies a token string.
func (v *Validator) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// publicPaths are endpoints that do not require an identified caller.
var publicPaths = []string{
	"/health",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved principal in the request context. When the validator was built
// with an empty secret the middleware passes everything through unresolved.
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(v.secret) == 0 || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			api.WriteUnauthorized(w, "Bearer token required")
			return
		}

		claims, err := v.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			api.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		principal := &Principal{
			ID:    claims.Subject,
			Name:  claims.Name,
			Roles: claims.Roles,
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
