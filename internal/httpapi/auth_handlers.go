package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
}

const tokenTTL = 12 * time.Hour

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	identity, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			unauthorized(w, r, "invalid credentials")
			return
		}
		obs.LogError("login lookup failed", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	// Disabled accounts and wrong passwords get the same answer.
	if !identity.Active || auth.VerifyPassword(identity.PasswordHash, req.Password) != nil {
		unauthorized(w, r, "invalid credentials")
		return
	}

	token, expiresAt, err := a.tokens.Issue(identity.ID, identity.Role, tokenTTL)
	if err != nil {
		obs.LogError("token issue failed", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	ip, ua := audit.FromRequest(r)
	a.recorder.Record(r.Context(), audit.Entry{
		ActorID:    &identity.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   identity.ID,
		Details:    map[string]any{"expires_at": expiresAt.Format(time.RFC3339)},
		IP:         ip,
		UserAgent:  ua,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    identity.ID,
		Name:      identity.Name,
		Role:      identity.Role,
	})
}
