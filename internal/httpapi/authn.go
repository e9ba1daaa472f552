package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/obs"
)

const authHeader = "Authorization"

var publicPaths = []string{
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth authenticates every non-public request and attaches the resolved
// identity to the context. It runs before any domain logic and has no side
// effect other than the context attachment.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.verifier == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.verifier.Authenticate(r.Context(), r.Header.Get(authHeader))
		if err != nil {
			authError(w, r, err)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// require guards a route with a capability. For self-or-privileged rules the
// owning identifier comes from the named path parameter.
func (a *API) require(capability auth.Capability, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := ""
		if param := capability.OwnerParam(); param != "" {
			ownerID = r.PathValue(param)
		}
		if err := capability.Allow(r.Context(), ownerID); err != nil {
			authError(w, r, err)
			return
		}
		next(w, r)
	})
}

// authError is the single translation point from authentication and
// authorization failures to caller-visible responses. The mapping is total:
// anything unclassified is an internal fault and surfaces without detail.
func authError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrUnauthenticated):
		unauthorized(w, r, "authentication required")
	case errors.Is(err, auth.ErrInvalidToken):
		unauthorized(w, r, "invalid token")
	case errors.Is(err, auth.ErrExpiredToken):
		unauthorized(w, r, "token expired")
	case errors.Is(err, auth.ErrIdentityNotFound):
		unauthorized(w, r, "account not found or disabled")
	case errors.Is(err, auth.ErrForbidden):
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		obs.LogError("authentication fault", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/assets/")
}
