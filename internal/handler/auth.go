package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/service"
)

// AuthHandler exchanges an authenticated request for a bearer token.
//
// A client logs in with Basic credentials once:
//
//	curl -u alice:secret http://localhost:8080/auth/token
//	{"token":"eyJhbGciOi...","expires_in":600}
//
// and then sends "Authorization: Bearer <token>" until it expires.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleToken issues a token for the current caller.
//
// HTTP: GET /auth/token
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.auth.IssueToken(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	// Tokens must not be cached by proxies.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, result)
}
