// Package identity resolves the customer behind a BFF request. Tokens are
// issued elsewhere; this package only verifies them.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const CustomerHeader = "X-Customer-ID"

var ErrUnauthenticated = errors.New("unauthenticated")

type Provider interface {
	Identify(r *http.Request) (string, error)
}

// JWTProvider accepts HS256 bearer tokens whose subject is the customer id.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

func (p *JWTProvider) Identify(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// IssueToken signs a token for customerID. Used by tooling and tests.
func (p *JWTProvider) IssueToken(customerID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   customerID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// HeaderProvider trusts the X-Customer-ID header. Development only.
type HeaderProvider struct{}

func (HeaderProvider) Identify(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(CustomerHeader))
	if id == "" {
		return "", fmt.Errorf("%w: missing %s header", ErrUnauthenticated, CustomerHeader)
	}
	return id, nil
}

type contextKey struct{}

func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, customerID)
}

// CustomerID returns the customer stored by Middleware, or "".
func CustomerID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware rejects requests without an identity and stores the customer
// id in the request context.
func Middleware(provider Provider, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID, err := provider.Identify(r)
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("Request rejected")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "Unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCustomerID(r.Context(), customerID)))
		})
	}
}
