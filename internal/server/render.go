package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/oauthflow"
	"github.com/skillcred/skillcred/internal/session"
	"github.com/skillcred/skillcred/internal/theme"
	"github.com/skillcred/skillcred/internal/toast"
)

// page is the data every template receives
type page struct {
	Title   string
	Path    string
	Theme   theme.Theme
	Session session.Session
	Toast   toast.Toast

	Email   string
	Profile profileValues
	UserID  string

	Callback *callbackView
}

// callbackView is the GitHub callback page state
type callbackView struct {
	FlowID string
	oauthflow.Snapshot
}

var templateFuncs = template.FuncMap{
	"plural": func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	},
}

// render mounts the session when no earlier step did and executes name
func (s *Server) render(c *gin.Context, status int, name string, p page) {
	if sess := sessionFrom(c); sess != nil {
		p.Session = sess.Mount(c.Request.Context())
	}
	p.Theme = themeFrom(c)
	p.Path = c.Request.URL.Path

	c.HTML(status, name, p)
}

func themeFrom(c *gin.Context) theme.Theme {
	value, err := c.Cookie(theme.CookieName)
	if err != nil {
		return theme.Light
	}
	return theme.Parse(value)
}

// redirectAfter asks the browser to load target once delay has passed
func redirectAfter(c *gin.Context, delay time.Duration, target string) {
	seconds := int(delay.Round(time.Second) / time.Second)
	c.Header("Refresh", fmt.Sprintf("%d; url=%s", seconds, target))
}

// safeReturnPath keeps redirects on this site
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/applicant"
	}
	return p
}

// errorStatus is the status of a page showing a failed backend call
func errorStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
