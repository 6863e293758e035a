package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pennywise.org/internal/audit"
	"pennywise.org/internal/auth"
)

const (
	msgActivationSent = "Activation link is sent to your email, please activate your account!"
	msgUserExists     = "User already exists"
	msgNotActivated   = "User account is not activated, please activate your account via link sent to your email!"
	msgBadCredentials = "Invalid credentials"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type activateRequest struct {
	Token string `json:"token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, r, http.StatusBadRequest, msgUserExists)
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.register", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": msgActivationSent,
	})
}

func (a *API) handleActivate(w http.ResponseWriter, r *http.Request) {
	var token string
	switch r.Method {
	case http.MethodGet:
		// emailed links land here
		token = r.URL.Query().Get("token")
	case http.MethodPost:
		var req activateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		token = req.Token
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	if strings.TrimSpace(token) == "" {
		writeError(w, r, http.StatusBadRequest, "activation token is required")
		return
	}

	userID, err := a.auth.Activate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			writeError(w, r, http.StatusGone, "activation link expired, please register again")
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusBadRequest, "invalid activation token")
		default:
			writeError(w, r, http.StatusInternalServerError, "activation failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.activate", map[string]any{
		"user_id": userID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Account activated, you can now log in",
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotActivated):
			writeError(w, r, http.StatusBadRequest, msgNotActivated)
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, r, http.StatusUnauthorized, msgBadCredentials)
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	a.setSessionCookies(w, pair)

	_ = audit.LogEvent(r.Context(), "auth.user.login", map[string]any{
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	cookie, err := r.Cookie(refreshCookie)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, r, http.StatusUnauthorized, "refresh token is required")
		return
	}

	pair, err := a.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		a.clearSessionCookies(w)
		writeError(w, r, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	a.setSessionCookies(w, pair)

	_ = audit.LogEvent(r.Context(), "auth.session.refresh", nil)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleLogout is lenient: cookies are cleared no matter what, and the
// refresh chain is revoked only when the caller still holds a valid
// access token.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if cookie, err := r.Cookie(accessCookie); err == nil && cookie.Value != "" {
		if userID, err := a.auth.Authenticate(r.Context(), cookie.Value); err == nil {
			if err := a.auth.Logout(r.Context(), userID); err == nil {
				_ = audit.LogEvent(r.Context(), "auth.user.logout", map[string]any{
					"user_id": userID,
				})
			}
		}
	}

	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) setSessionCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   a.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
