package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lukewarren/dashboard-auth/internal/api"
	"github.com/lukewarren/dashboard-auth/internal/config"
	"github.com/lukewarren/dashboard-auth/internal/metrics"
	"github.com/lukewarren/dashboard-auth/internal/oauth"
	"github.com/lukewarren/dashboard-auth/internal/repository/postgres"
	"github.com/lukewarren/dashboard-auth/internal/service"
	"gorm.io/gorm"
)

// TestServer runs the full router against a test database. Its client keeps
// cookies across requests and does not follow redirects, so handlers'
// Set-Cookie and Location headers stay observable.
type TestServer struct {
	Server   *httptest.Server
	Client   *http.Client
	Services *service.Services
}

func NewTestServer(t *testing.T, db *gorm.DB, provider oauth.Provider, cfg *config.Config) *TestServer {
	t.Helper()

	repos := postgres.NewRepositories(db)
	services := service.NewServices(repos, provider, cfg)
	collector := metrics.NewCollector()
	router := api.NewRouter(services, collector, cfg)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &TestServer{
		Server:   server,
		Client:   client,
		Services: services,
	}
}

func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// PostForm submits a form-encoded request with the client's cookies.
func (ts *TestServer) PostForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	resp, err := ts.Client.Post(ts.URL(path), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func (ts *TestServer) Get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := ts.Client.Get(ts.URL(path))
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// DecodeJSON reads a JSON response body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
