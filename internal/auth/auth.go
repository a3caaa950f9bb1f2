// Package auth verifies Supabase access tokens and carries the resulting
// session through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
)

// Audience is the aud claim Supabase puts on signed-in user tokens.
const Audience = "authenticated"

// Session is the authenticated caller.
type Session struct {
	UserID string
	Email  string
	Role   string
}

// IsAdminClaim reports whether the token itself grants admin.
func (s Session) IsAdminClaim() bool { return s.Role == "admin" }

type claims struct {
	Email       string         `json:"email"`
	AppMetadata map[string]any `json:"app_metadata"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with the project's JWT secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (Session, error) {
	var c claims
	_, err := v.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Session{}, appErrors.Wrap(err, appErrors.CodeUnauthorized, "invalid token")
	}
	if c.Subject == "" {
		return Session{}, appErrors.Unauthorized("token has no subject")
	}

	role, _ := c.AppMetadata["role"].(string)
	return Session{UserID: c.Subject, Email: c.Email, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", appErrors.Unauthorized("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Sign issues a token the Verifier accepts. Used by tests and local tooling.
func Sign(secret string, s Session, ttl time.Duration) (string, error) {
	if s.UserID == "" {
		return "", errors.New("auth: sign: empty user id")
	}
	now := time.Now()
	c := claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.Role != "" {
		c.AppMetadata = map[string]any{"role": s.Role}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return signed, nil
}
