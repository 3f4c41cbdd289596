package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lukewarren/dashboard-auth/internal/oauth"
)

// FakeGitHub stands in for GitHub's OAuth and API endpoints. It accepts a
// single authorization code and serves a configurable user and email list.
type FakeGitHub struct {
	Server *httptest.Server

	ValidCode string
	UserID    int64
	Login     string
	FullName  string
	Emails    []FakeEmail
}

type FakeEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewFakeGitHub(t *testing.T) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		ValidCode: "valid-code",
		UserID:    12345,
		Login:     "octocat",
		FullName:  "Octo Cat",
		Emails: []FakeEmail{
			{Email: "octocat@example.com", Primary: true, Verified: true},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostFormValue("code") != f.ValidCode {
			// GitHub signals a bad code with a 200 carrying an error field.
			json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fake-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": f.UserID, "login": f.Login, "name": f.FullName})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.Emails)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

// Provider returns a GitHub provider pointed at the fake endpoints.
func (f *FakeGitHub) Provider() *oauth.GitHubProvider {
	return oauth.NewGitHubProvider(oauth.GitHubConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/login/github/callback",
		AuthURL:      f.Server.URL + "/login/oauth/authorize",
		TokenURL:     f.Server.URL + "/login/oauth/access_token",
		UserURL:      f.Server.URL + "/user",
		EmailsURL:    f.Server.URL + "/user/emails",
	})
}
