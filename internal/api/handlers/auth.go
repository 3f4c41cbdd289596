package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lukewarren/dashboard-auth/internal/api/middleware"
	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/metrics"
	"github.com/lukewarren/dashboard-auth/internal/oauth"
	"github.com/lukewarren/dashboard-auth/internal/service"
)

const (
	oauthStateCookie = "oauth_state"
	// Where the browser lands after a successful login or signup.
	homePath  = "/"
	loginPath = "/login"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    *service.SessionService
	collector   *metrics.Collector
	secure      bool
}

func NewAuthHandler(authService *service.AuthService, sessions *service.SessionService, collector *metrics.Collector, secure bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		collector:   collector,
		secure:      secure,
	}
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name(),
		Role:  string(u.Role),
	}
}

// Signup handles the account-creation form.
// POST /signup (form-encoded: firstName, lastName, email, password)
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, session, err := h.authService.Signup(r.Context(), service.SignupInput{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	})
	if err != nil {
		h.writeSignupError(w, err)
		return
	}

	h.collector.RecordSignup()
	http.SetCookie(w, h.sessions.SessionCookie(session))
	http.Redirect(w, r, homePath, http.StatusFound)
}

func (h *AuthHandler) writeSignupError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeFieldError(w, http.StatusBadRequest, vErr)
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, domain.ErrEmailTaken.Error())
	default:
		log.Printf("ERROR [handlers.Signup] %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
	}
}

// Login handles the credential form.
// POST /login (form-encoded: email, password)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, session, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.collector.RecordLogin("password", "failure")
		h.writeLoginError(w, err)
		return
	}

	h.collector.RecordLogin("password", "success")
	http.SetCookie(w, h.sessions.SessionCookie(session))
	http.Redirect(w, r, homePath, http.StatusFound)
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeFieldError(w, http.StatusBadRequest, vErr)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrOAuthOnlyAccount):
		writeError(w, http.StatusBadRequest, domain.ErrOAuthOnlyAccount.Error())
	default:
		log.Printf("ERROR [handlers.Login] %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
	}
}

// Logout invalidates the current session and clears its cookie.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, session := middleware.CurrentUser(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	if err := h.authService.Logout(r.Context(), session.ID); err != nil {
		log.Printf("ERROR [handlers.Logout] %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
		return
	}

	http.SetCookie(w, h.sessions.BlankSessionCookie())
	http.Redirect(w, r, loginPath, http.StatusFound)
}

// GitHubLogin begins the OAuth flow: mint a state token, stash it in a
// short-lived cookie, and send the browser to the provider.
// GET /login/github
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		log.Printf("ERROR [handlers.GitHubLogin] failed to generate state: %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.authService.AuthorizationURL(state), http.StatusFound)
}

// GitHubCallback completes the OAuth flow.
// GET /login/github/callback?code=...&state=...
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	stateCookie, err := r.Cookie(oauthStateCookie)
	storedState := ""
	if err == nil {
		storedState = stateCookie.Value
	}

	// The state minted before the provider redirect must round-trip
	// unchanged.
	if code == "" || state == "" || storedState == "" || state != storedState {
		writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	_, session, err := h.authService.HandleOAuthCallback(r.Context(), code)
	if err != nil {
		h.collector.RecordLogin("github", "failure")
		var pErr *oauth.ProviderError
		if errors.As(err, &pErr) {
			writeError(w, http.StatusBadRequest, pErr.Error())
			return
		}
		log.Printf("ERROR [handlers.GitHubCallback] %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
		return
	}

	h.collector.RecordLogin("github", "success")
	http.SetCookie(w, h.sessions.SessionCookie(session))
	http.Redirect(w, r, homePath, http.StatusFound)
}

// Me returns the authenticated user's projection for the dashboard header.
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// ListUsers returns all users. Admin only.
// GET /api/admin/users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		log.Printf("ERROR [handlers.ListUsers] %v", err)
		writeError(w, http.StatusInternalServerError, "An unknown error occurred")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldError(w http.ResponseWriter, status int, vErr *domain.ValidationError) {
	writeJSON(w, status, map[string]string{"error": vErr.Message, "field": vErr.Field})
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
