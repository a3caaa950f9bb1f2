package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/response"
)

// AdminChecker looks up the admin_users allow-list.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Authenticator guards routes with session and admin checks.
type Authenticator struct {
	Verifier *Verifier
	Admins   AdminChecker
}

func NewAuthenticator(v *Verifier, admins AdminChecker) *Authenticator {
	return &Authenticator{Verifier: v, Admins: admins}
}

// IsAdmin reports whether s may use admin routes.
func (a *Authenticator) IsAdmin(ctx context.Context, s Session) (bool, error) {
	if s.IsAdminClaim() {
		return true, nil
	}
	if a.Admins == nil {
		return false, nil
	}
	return a.Admins.IsAdmin(ctx, s.UserID)
}

// RequireSession rejects requests without a valid bearer token (401) and
// stores the Session for downstream handlers.
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := BearerToken(r)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		s, err := a.Verifier.Verify(raw)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
			response.Error(w, r, err)
			return
		}

		l := zerolog.Ctx(r.Context()).With().Str("user_id", s.UserID).Logger()
		ctx := WithSession(l.WithContext(r.Context()), s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireSession. Non-admins get 403.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		if !ok {
			response.Error(w, r, appErrors.Unauthorized("no session"))
			return
		}
		admin, err := a.IsAdmin(r.Context(), s)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if !admin {
			response.Error(w, r, appErrors.Forbidden("admin access only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
