package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/tokenstore"
)

// newAPIProxy forwards the API path prefix to the backend host unchanged.
// Requests without credentials get the visitor's stored token attached the
// same way the API client attaches it.
func newAPIProxy(backendURL string, mode apiclient.CredentialMode, log zerolog.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", backendURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		attachStoredToken(req, mode)
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Backend proxy error")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":{"message":"Backend unavailable"}}`))
	}

	return proxy, nil
}

func attachStoredToken(req *http.Request, mode apiclient.CredentialMode) {
	cookie, err := req.Cookie(tokenstore.CookieName)
	if err != nil || cookie.Value == "" {
		return
	}

	switch mode {
	case apiclient.CredentialsCookie:
		if _, err := req.Cookie(apiclient.BackendCookieName); err == nil {
			return
		}
		req.AddCookie(&http.Cookie{Name: apiclient.BackendCookieName, Value: cookie.Value})
	default:
		if req.Header.Get("Authorization") != "" {
			return
		}
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
	}
}

func (s *Server) proxyAPI(c *gin.Context) {
	s.proxy.ServeHTTP(c.Writer, c.Request)
}
