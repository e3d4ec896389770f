// Package apiclient is the single configured request issuer for the SkillCred
// backend. Every call is relative to one base path and carries the visitor's
// credentials in the one process-wide credential mode.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/skillcred/skillcred/internal/metrics"
)

// BackendCookieName is the cookie the backend reads its session token from
const BackendCookieName = "jwt_token"

const maxResponseBytes = 1 << 20

// Operation names used in errors and metrics
const (
	OpSignup          = "signup"
	OpLogin           = "login"
	OpVerify          = "verify"
	OpGitHubSetToken  = "github_set_token"
	OpCompleteProfile = "complete_profile"
)

// CredentialMode decides how the visitor's token is attached to requests
type CredentialMode int

const (
	// CredentialsBearer sends "Authorization: Bearer <token>"
	CredentialsBearer CredentialMode = iota
	// CredentialsCookie sends the token as the backend's session cookie
	CredentialsCookie
)

// ParseCredentialMode parses "bearer" or "cookie"
func ParseCredentialMode(s string) (CredentialMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bearer", "":
		return CredentialsBearer, nil
	case "cookie":
		return CredentialsCookie, nil
	default:
		return CredentialsBearer, fmt.Errorf("unknown credential mode %q", s)
	}
}

func (m CredentialMode) String() string {
	if m == CredentialsCookie {
		return "cookie"
	}
	return "bearer"
}

// TokenSource supplies the current visitor's token, or "" when there is none
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token() string { return string(t) }

// Client represents an HTTP client for the SkillCred API
type Client struct {
	baseURL    string
	mode       CredentialMode
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a client for backendURL with every path under prefix
func New(backendURL, prefix string, mode CredentialMode) *Client {
	return &Client{
		baseURL: strings.TrimRight(backendURL, "/") + prefix,
		mode:    mode,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the backend URL including the API prefix
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Mode returns the credential mode
func (c *Client) Mode() CredentialMode {
	return c.mode
}

// WithTokenSource returns a copy of c that attaches tokens from ts
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// WithToken returns a copy of c that attaches token
func (c *Client) WithToken(token string) *Client {
	return c.WithTokenSource(StaticToken(token))
}

// Signup creates an account
func (c *Client) Signup(ctx context.Context, email, password string) (*SignupResponse, error) {
	body, err := jsonBody(CredentialsRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return nil, err
	}

	var resp SignupResponse
	cookies, err := c.do(ctx, OpSignup, http.MethodPost, "/auth/signup", nil, body, "application/json", &resp,
		http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	if resp.AuthToken == "" {
		resp.AuthToken = cookieValue(cookies, BackendCookieName)
	}
	return &resp, nil
}

// Login authenticates the user and returns the session token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := jsonBody(CredentialsRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	cookies, err := c.do(ctx, OpLogin, http.MethodPost, "/auth/login", nil, body, "application/json", &resp)
	if err != nil {
		return nil, err
	}

	if resp.AuthToken == "" {
		resp.AuthToken = cookieValue(cookies, BackendCookieName)
	}
	return &resp, nil
}

// Verify asks the backend who the attached credentials belong to
func (c *Client) Verify(ctx context.Context) (*VerifyResponse, error) {
	var resp VerifyResponse
	if _, err := c.do(ctx, OpVerify, http.MethodPost, "/auth/verify", nil, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyToken verifies an explicit token
func (c *Client) VerifyToken(ctx context.Context, token string) (*VerifyResponse, error) {
	return c.WithToken(token).Verify(ctx)
}

// ExchangeGitHubCode trades a one-time GitHub authorization code for a session
func (c *Client) ExchangeGitHubCode(ctx context.Context, code string) (*GitHubTokenResponse, error) {
	query := url.Values{}
	query.Set("token", code)

	var resp GitHubTokenResponse
	cookies, err := c.do(ctx, OpGitHubSetToken, http.MethodPost, "/auth/github/set-token", query, nil, "", &resp)
	if err != nil {
		return nil, err
	}

	if resp.AuthToken == "" {
		resp.AuthToken = cookieValue(cookies, BackendCookieName)
	}
	return &resp, nil
}

// CompleteProfile uploads the profile form as multipart/form-data
func (c *Client) CompleteProfile(ctx context.Context, form ProfileForm) (map[string]any, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range form.Fields() {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", field[0], err)
		}
	}

	if form.Picture != nil && form.Picture.Content != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="profile_picture"; filename="%s"`, escapeQuotes(form.Picture.Filename)))
		contentType := form.Picture.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, form.Picture.Content); err != nil {
			return nil, fmt.Errorf("failed to copy profile picture: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	resp := map[string]any{}
	if _, err := c.do(ctx, OpCompleteProfile, http.MethodPost, "/profile", nil, &buf, writer.FormDataContentType(), &resp,
		http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return resp, nil
}

// do issues one request and decodes a JSON body into out. accept lists the
// success statuses, 200 when empty.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any, accept ...int) ([]*http.Cookie, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	c.attachCredentials(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendCall(op, err)
		return nil, fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordBackendCall(op, err)
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if !accepted(resp.StatusCode, accept) {
		apiErr := newError(op, resp.StatusCode, data)
		metrics.RecordBackendCall(op, apiErr)
		return nil, apiErr
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			metrics.RecordBackendCall(op, err)
			return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}

	metrics.RecordBackendCall(op, nil)
	return resp.Cookies(), nil
}

func (c *Client) attachCredentials(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token := c.tokens.Token()
	if token == "" {
		return
	}

	switch c.mode {
	case CredentialsCookie:
		req.AddCookie(&http.Cookie{Name: BackendCookieName, Value: token})
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func accepted(status int, accept []int) bool {
	if len(accept) == 0 {
		return status == http.StatusOK
	}
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
