package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// TikTokAuthURL generates the OAuth authorization URL for the frontend
// redirect.
func (a *App) TikTokAuthURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	a.json(w, http.StatusOK, map[string]string{
		"authorization_url": a.TikTok.AuthorizationURL(state),
		"state":             state,
	})
}

// TikTokCallback exchanges the OAuth code and persists the tokens.
func (a *App) TikTokCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if len(code) < 2 || len(state) < 2 {
		a.error(w, http.StatusBadRequest, "bad_request", "code and state are required")
		return
	}
	token, err := a.TikTok.ExchangeCode(r.Context(), code)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"connected":  true,
		"open_id":    token.OpenID,
		"scope":      token.Scope,
		"expires_at": token.ExpiresAt,
	})
}

// TikTokAccount reports the connection status of the stored account.
func (a *App) TikTokAccount(w http.ResponseWriter, r *http.Request) {
	status, err := a.TikTok.Status(r.Context())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account status")
		return
	}
	a.json(w, http.StatusOK, status)
}
