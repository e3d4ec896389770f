package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcred/skillcred/internal/config"
	"github.com/skillcred/skillcred/internal/tokenstore"
)

// fakeBackend counts calls per path and serves registered handlers
type fakeBackend struct {
	mu       sync.Mutex
	calls    map[string]int
	auth     map[string]string
	handlers map[string]http.HandlerFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:    make(map[string]int),
		auth:     make(map[string]string),
		handlers: make(map[string]http.HandlerFunc),
	}
}

func (b *fakeBackend) handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	b.auth[r.URL.Path] = r.Header.Get("Authorization")
	h := b.handlers[r.URL.Path]
	b.mu.Unlock()

	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) authorization(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auth[path]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:     ":0",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Backend: config.BackendConfig{
			URL:            backendURL,
			APIPrefix:      "/api",
			CredentialMode: config.CredentialModeBearer,
			Timeout:        5 * time.Second,
		},
		Session: config.SessionConfig{
			TokenMaxAge:   time.Hour,
			RedirectDelay: 2 * time.Second,
			CountdownFrom: 5,
		},
	}
}

func newTestServer(t *testing.T, backend *fakeBackend, mutate ...func(*config.Config)) *Server {
	t.Helper()

	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	cfg := testConfig(ts.URL)
	for _, fn := range mutate {
		fn(cfg)
	}

	s, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(s.flows.CloseAll)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: tokenstore.CookieName, Value: token})
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "skillcred-web", body["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skillcred_http_requests_total")
}

func TestRootRedirect(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/applicant", rec.Header().Get("Location"))
}

func TestLanding_NoTokenNoBackendCall(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/applicant", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Know Where You Stand")
	assert.Zero(t, backend.count("/api/auth/verify"))
}

func TestLanding_VerifiesStoredToken(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusOK, `{"email":"a@b.test","user_id":"u1"}`))
	s := newTestServer(t, backend)

	rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant", nil), "tok-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as a@b.test")
	assert.Equal(t, 1, backend.count("/api/auth/verify"))
	assert.Equal(t, "Bearer tok-1", backend.authorization("/api/auth/verify"))
}

func TestLanding_FailedVerifyKeepsToken(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusUnauthorized, `{"detail":"expired"}`))
	s := newTestServer(t, backend)

	rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant", nil), "tok-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Signed in")
	assert.Nil(t, responseCookie(rec, tokenstore.CookieName), "stored token is left alone")
}

func TestRouteGuard(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "unauthorized", handler: jsonHandler(http.StatusUnauthorized, `{"detail":{"message":"Invalid token"}}`)},
		{name: "server error", handler: jsonHandler(http.StatusInternalServerError, `oops`)},
		{name: "no identity", handler: jsonHandler(http.StatusOK, `{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.handle("/api/auth/verify", tt.handler)
			s := newTestServer(t, backend)

			rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant/u1/complete-profile", nil), "tok-1"))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
			assert.NotContains(t, rec.Body.String(), "Complete your profile")
			assert.Equal(t, 1, backend.count("/api/auth/verify"))
		})
	}
}

func TestRouteGuard_WithoutTokenStillAsksBackend(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusUnauthorized, `{}`))
	s := newTestServer(t, backend)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/applicant/u1/complete-profile", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, 1, backend.count("/api/auth/verify"))
	assert.Empty(t, backend.authorization("/api/auth/verify"))
}

func TestRouteGuard_BackendDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(ts.URL)
	ts.Close()

	s, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant/u1/complete-profile", nil), "tok-1"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouteGuard_Success(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusOK, `{"email":"a@b.test","user_id":"u1"}`))
	s := newTestServer(t, backend)

	rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant/u1/complete-profile", nil), "tok-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Complete your profile")
	assert.Equal(t, 1, backend.count("/api/auth/verify"), "page render reuses the guard's check")
}

func TestRouteGuard_OtherUsersPage(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusOK, `{"email":"a@b.test","user_id":"u1"}`))
	backend.handle("/api/profile", jsonHandler(http.StatusOK, `{"message":"ok"}`))
	s := newTestServer(t, backend)

	rec := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/applicant/someone-else/complete-profile", nil), "tok-1"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/applicant/u1/complete-profile", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "Complete your profile")

	post := postForm("/applicant/someone-else/complete-profile", url.Values{"first_name": {"A"}, "last_name": {"B"}})
	rec = serve(s, withToken(post, "tok-1"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, backend.count("/api/profile"))
}

func TestLogin_Success(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "a@b.test", req["email"])
		jsonHandler(http.StatusOK, `{"email":"a@b.test","user_id":"u1","auth_token":"tok-1"}`)(w, r)
	})
	s := newTestServer(t, backend)

	rec := serve(s, postForm("/login", url.Values{"email": {" a@b.test "}, "password": {"secret"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2; url=/applicant/u1/complete-profile", rec.Header().Get("Refresh"))
	assert.Contains(t, rec.Body.String(), "Login successful!")
	assert.Contains(t, rec.Body.String(), `data-dismiss-ms="3000"`)
	assert.Contains(t, rec.Body.String(), "Log out", "header reflects the new session")

	cookie := responseCookie(rec, tokenstore.CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Zero(t, backend.count("/api/auth/verify"))
}

func TestLogin_BackendError(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/login", jsonHandler(http.StatusUnauthorized, `{"detail":{"message":"Invalid credentials"}}`))
	s := newTestServer(t, backend)

	rec := serve(s, postForm("/login", url.Values{"email": {"a@b.test"}, "password": {"wrong"}}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Empty(t, rec.Header().Get("Refresh"))
	assert.Nil(t, responseCookie(rec, tokenstore.CookieName))
}

func TestLogin_InvalidForm(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)

	rec := serve(s, postForm("/login", url.Values{"email": {"not-an-email"}, "password": {"x"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), msgInvalidCredentials)
	assert.Zero(t, backend.count("/api/auth/login"))
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantText    string
		wantRefresh string
	}{
		{
			name:        "backend message",
			status:      http.StatusCreated,
			body:        `{"message":"User created successfully","user_data":{"email":"a@b.test","user_id":"u9"}}`,
			wantStatus:  http.StatusOK,
			wantText:    "User created successfully",
			wantRefresh: "2; url=/applicant/u9/complete-profile",
		},
		{
			name:        "default message",
			status:      http.StatusOK,
			body:        `{"user_data":{"email":"a@b.test","user_id":"u9"}}`,
			wantStatus:  http.StatusOK,
			wantText:    msgSignupSuccess,
			wantRefresh: "2; url=/applicant/u9/complete-profile",
		},
		{
			name:        "top-level user id",
			status:      http.StatusCreated,
			body:        `{"message":"User created successfully","user_id":"u10"}`,
			wantStatus:  http.StatusOK,
			wantText:    "User created successfully",
			wantRefresh: "2; url=/applicant/u10/complete-profile",
		},
		{
			name:       "conflict",
			status:     http.StatusConflict,
			body:       `{"detail":{"message":"User already exists"}}`,
			wantStatus: http.StatusConflict,
			wantText:   "User already exists",
		},
		{
			name:       "no detail",
			status:     http.StatusInternalServerError,
			body:       `Internal Server Error`,
			wantStatus: http.StatusBadGateway,
			wantText:   msgGenericError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.handle("/api/auth/signup", jsonHandler(tt.status, tt.body))
			s := newTestServer(t, backend)

			rec := serve(s, postForm("/get-started", url.Values{"email": {"a@b.test"}, "password": {"secret"}}))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Equal(t, tt.wantRefresh, rec.Header().Get("Refresh"))
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, withToken(httptest.NewRequest(http.MethodPost, "/logout", nil), "tok-1"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookie := responseCookie(rec, tokenstore.CookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestInvalidTokenPage(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/invalid", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or Expired Token")
	assert.Contains(t, rec.Body.String(), `href="/login"`)
}

func TestThemeToggle(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, postForm("/theme", url.Values{"return_to": {"/login"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookie := responseCookie(rec, "theme")
	require.NotNil(t, cookie)
	assert.Equal(t, "dark", cookie.Value)
	assert.Zero(t, cookie.MaxAge, "theme lasts for the browser session only")
	assert.True(t, cookie.Expires.IsZero())

	req := postForm("/theme", url.Values{"return_to": {"//evil.test"}})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	rec = serve(s, req)
	assert.Equal(t, "/applicant", rec.Header().Get("Location"))
	assert.Equal(t, "light", responseCookie(rec, "theme").Value)
}

func TestThemeAppliedToPages(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	rec := serve(s, req)
	assert.Contains(t, rec.Body.String(), `<html lang="en" class="dark">`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Contains(t, rec.Body.String(), `<html lang="en" class="">`)
}

func TestGitHubStart(t *testing.T) {
	t.Setenv("GITHUB_AUTH_URL", "")

	s := newTestServer(t, newFakeBackend(), func(cfg *config.Config) {
		cfg.GitHub = config.GitHubConfig{ClientID: "abc", Scopes: []string{"read:user"}}
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	target, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", target.Host)

	state := responseCookie(rec, stateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, target.Query().Get("state"), state.Value)
}

func TestGitHubStart_FromEnvironment(t *testing.T) {
	t.Setenv("GITHUB_AUTH_URL", "https://github.com/login/oauth/authorize?client_id=fixed")
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/github", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://github.com/login/oauth/authorize?client_id=fixed", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, stateCookieName))
}

func TestGitHubStart_NotConfigured(t *testing.T) {
	t.Setenv("GITHUB_AUTH_URL", "")
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/github", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), msgGitHubUnavailable)
}

func TestGitHubCallback_NoNetworkOnBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		state string
		want  string
	}{
		{name: "provider error", query: "error=access_denied&error_description=Denied", want: "GitHub authentication failed: Denied"},
		{name: "provider error without description", query: "error=access_denied", want: "GitHub authentication failed: Unknown error"},
		{name: "missing code", query: "", want: "GitHub code not found in URL."},
		{name: "state mismatch", query: "code=abc&state=other", state: "expected", want: "GitHub sign-in could not be verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			s := newTestServer(t, backend)

			req := httptest.NewRequest(http.MethodGet, "/auth/callback/github?"+tt.query, nil)
			if tt.state != "" {
				req.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.state})
			}
			rec := serve(s, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Body.String(), `data-dismiss-ms="0"`, "OAuth errors stay visible")
			assert.Zero(t, backend.count("/api/auth/github/set-token"))
			assert.Zero(t, s.flows.Len())
		})
	}
}

func TestGitHubCallback_Success(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/github/set-token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("token"))
		jsonHandler(http.StatusOK, `{"message":"ok","user_data":{"userId":"u1"},"auth_token":"tok-gh"}`)(w, r)
	})
	s := newTestServer(t, backend)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/callback/github?code=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GitHub authentication successful! Redirecting shortly...")
	assert.Contains(t, rec.Body.String(), "Redirecting in <span id=\"countdown\">5</span> second<span id=\"plural\">s</span>")
	assert.Equal(t, "5; url=/applicant/u1/complete-profile", rec.Header().Get("Refresh"))

	cookie := responseCookie(rec, tokenstore.CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok-gh", cookie.Value)
	assert.Equal(t, 1, s.flows.Len())
}

func TestGitHubCallback_ReplayedCodeIsRefused(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/github/set-token", jsonHandler(http.StatusOK,
		`{"user_data":{"user_id":"first"},"auth_token":"first-token"}`))
	s := newTestServer(t, backend)

	first := serve(s, httptest.NewRequest(http.MethodGet, "/auth/callback/github?code=abc", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookie := responseCookie(first, tokenstore.CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "first-token", cookie.Value)

	// Another browser loading the same URL must not become the first visitor
	second := serve(s, httptest.NewRequest(http.MethodGet, "/auth/callback/github?code=abc", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "already used")
	assert.NotContains(t, second.Body.String(), "first-token")
	assert.Nil(t, responseCookie(second, tokenstore.CookieName))
	assert.Empty(t, second.Header().Get("Refresh"))
	assert.Equal(t, 1, backend.count("/api/auth/github/set-token"))
	assert.Equal(t, 1, s.flows.Len(), "only the first flow counts down")
}

func TestGitHubCallback_ExchangeFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/github/set-token", jsonHandler(http.StatusBadRequest, `{"detail":"Invalid GitHub code format"}`))
	s := newTestServer(t, backend)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/callback/github?code=abc", nil))

	assert.Contains(t, rec.Body.String(), "Invalid GitHub code format")
	assert.Contains(t, rec.Body.String(), "contact support")
	assert.Nil(t, responseCookie(rec, tokenstore.CookieName))
	assert.Zero(t, s.flows.Len())
}

var flowIDPattern = regexp.MustCompile(`data-flow="([^"]+)"`)

func TestGitHubCallbackEvents(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/github/set-token", jsonHandler(http.StatusOK, `{"user_data":{"user_id":"u1"}}`))
	s := newTestServer(t, backend, func(cfg *config.Config) {
		cfg.Session.CountdownFrom = 1
	})

	web := httptest.NewServer(s.Handler())
	defer web.Close()

	resp, err := http.Get(web.URL + "/auth/callback/github?code=abc")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	match := flowIDPattern.FindSubmatch(page)
	require.Len(t, match, 2)

	resp, err = http.Get(web.URL + "/auth/callback/github/events/" + string(match[1]))
	require.NoError(t, err)
	defer resp.Body.Close()
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", mediaType)

	stream, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(stream), "event:navigate")
	assert.Contains(t, string(stream), "/applicant/u1/complete-profile")
	assert.Zero(t, s.flows.Len(), "the flow is torn down with its stream")
}

func TestGitHubCallbackEvents_UnknownFlow(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/callback/github/events/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func profileRequest(t *testing.T, fields map[string]string, picture []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if picture != nil {
		part, err := writer.CreateFormFile("profile_picture", "me.png")
		require.NoError(t, err)
		part.Write(picture)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/applicant/u1/complete-profile", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return withToken(req, "tok-1")
}

func TestCompleteProfile_Validation(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusOK, `{"user_id":"u1"}`))
	s := newTestServer(t, backend)

	rec := serve(s, profileRequest(t, map[string]string{
		"first_name":   "Krishna",
		"last_name":    "Sharma",
		"linkedin_url": "not a url",
	}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "LinkedIn URL must be a valid URL")
	assert.Contains(t, rec.Body.String(), `value="Krishna"`, "entered values are kept")
	assert.Zero(t, backend.count("/api/profile"))
}

func TestCompleteProfile_Submits(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/auth/verify", jsonHandler(http.StatusOK, `{"user_id":"u1"}`))
	backend.handle("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Krishna", r.FormValue("first_name"))
		assert.Equal(t, "Pune", r.FormValue("city"))

		file, _, err := r.FormFile("profile_picture")
		require.NoError(t, err)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "PNG", string(content))

		jsonHandler(http.StatusOK, `{"message":"Profile updated"}`)(w, r)
	})
	s := newTestServer(t, backend)

	rec := serve(s, profileRequest(t, map[string]string{
		"first_name": "Krishna",
		"last_name":  "Sharma",
		"city":       "Pune",
	}, []byte("PNG")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile updated")
	assert.Equal(t, 1, backend.count("/api/profile"))
	assert.Equal(t, "Bearer tok-1", backend.authorization("/api/profile"))
}

func TestAPIProxy(t *testing.T) {
	backend := newFakeBackend()
	backend.handle("/api/leaderboard", jsonHandler(http.StatusOK, `{"entries":[]}`))
	s := newTestServer(t, backend)

	web := httptest.NewServer(s.Handler())
	defer web.Close()

	req, err := http.NewRequest(http.MethodGet, web.URL+"/api/leaderboard?page=2", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(withToken(req, "tok-1"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"entries":[]}`, string(body))
	assert.Equal(t, "Bearer tok-1", backend.authorization("/api/leaderboard"))
}

func TestAPIProxy_BackendDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(ts.URL)
	ts.Close()

	s, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	web := httptest.NewServer(s.Handler())
	defer web.Close()

	resp, err := http.Get(web.URL + "/api/leaderboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "Backend unavailable")
}
