package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nishijain7/uber-clone/internal/domain"
)

type authContextKey string

const contextKeyUser authContextKey = "uberclone-auth-user"

// TokenCookieName is the session cookie set on register/login and cleared on
// logout.
const TokenCookieName = "token"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth gates a handler behind the auth guard and attaches the
// verified user to the request context.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth extracts the token candidate, runs the auth guard and enriches
// the context. Every rejection surfaces the same 401 body; the specific kind
// is logged and counted internally only.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, *domain.User, bool) {
	candidate := tokenFromRequest(req)
	user, err := r.auth.Authenticate(req.Context(), candidate)
	if err != nil {
		kind := rejectionKind(err)
		r.logger.Warn("authentication rejected", "kind", kind, "path", req.URL.Path)
		r.recordAuthRejection(kind)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return req.Context(), nil, false
	}
	ctx := context.WithValue(req.Context(), contextKeyUser, user)
	return ctx, user, true
}

// userFromContext extracts the authenticated user from context.
func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)
	return user, ok
}

// tokenFromRequest applies the single token-transport policy: the token
// cookie wins, the Authorization bearer header is the fallback. Used by both
// the auth guard and logout so the policy cannot drift per handler.
func tokenFromRequest(req *http.Request) string {
	if cookie, err := req.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
