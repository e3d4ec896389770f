package oauthflow

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/skillcred/skillcred/internal/config"
)

// ErrGitHubNotConfigured is returned when no authorization URL can be built
var ErrGitHubNotConfigured = errors.New("GitHub sign-in is not configured")

// AuthURL resolves the GitHub authorization URL. GITHUB_AUTH_URL is read at
// call time so it can change without a restart; otherwise the URL is built
// from the client settings. The bool reports whether state was embedded.
func AuthURL(cfg config.GitHubConfig, state string) (string, bool, error) {
	if u := strings.TrimSpace(os.Getenv("GITHUB_AUTH_URL")); u != "" {
		return u, false, nil
	}
	if u := strings.TrimSpace(cfg.AuthURL); u != "" {
		return u, false, nil
	}
	if cfg.ClientID == "" {
		return "", false, ErrGitHubNotConfigured
	}

	oc := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURL,
		Scopes:      cfg.Scopes,
		Endpoint:    github.Endpoint,
	}
	return oc.AuthCodeURL(state), true, nil
}
