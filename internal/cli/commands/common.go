package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/cli/userconfig"
	"github.com/skillcred/skillcred/internal/logger"
	"github.com/skillcred/skillcred/internal/oauthflow"
	"github.com/skillcred/skillcred/internal/session"
	"github.com/skillcred/skillcred/internal/theme"
	"github.com/skillcred/skillcred/internal/tokenstore"
)

const (
	envBackendURL = "SKILLCRED_BACKEND_URL"
	envWebURL     = "SKILLCRED_WEB_URL"
	envEmail      = "SKILLCRED_EMAIL"
	envPassword   = "SKILLCRED_PASSWORD"

	apiPrefix      = "/api"
	requestTimeout = 30 * time.Second
)

// Globals are the persistent flags of the root command
type Globals struct {
	BackendURL string
	WebURL     string
	Dark       bool
}

// runtime is everything a command needs to talk to the backend
type runtime struct {
	client   *apiclient.Client
	store    tokenstore.Store
	out      io.Writer
	toggler  *theme.Toggler
	openURL  func(string) error
	flowOpts []oauthflow.Option
	webURL   string
}

// Option configures a command's dependencies
type Option func(*runtime)

// WithAPIClient sets the backend client
func WithAPIClient(c *apiclient.Client) Option {
	return func(r *runtime) { r.client = c }
}

// WithTokenStore sets where the session token is kept
func WithTokenStore(s tokenstore.Store) Option {
	return func(r *runtime) { r.store = s }
}

// WithOutput sets where command output is written
func WithOutput(w io.Writer) Option {
	return func(r *runtime) { r.out = w }
}

// WithBrowser replaces the function that opens URLs
func WithBrowser(open func(string) error) Option {
	return func(r *runtime) { r.openURL = open }
}

// WithFlowOptions adds options to GitHub callback flows
func WithFlowOptions(opts ...oauthflow.Option) Option {
	return func(r *runtime) { r.flowOpts = append(r.flowOpts, opts...) }
}

// WithWebURL sets the web front end address used in printed links
func WithWebURL(u string) Option {
	return func(r *runtime) { r.webURL = strings.TrimRight(u, "/") }
}

// newRuntime resolves flags, environment and user config, then applies opts.
// Flags win over the environment, which wins over the config file.
func newRuntime(g *Globals, opts ...Option) (*runtime, error) {
	r := baseRuntime(g, opts...)

	if r.client != nil && r.store != nil && r.webURL != "" {
		return r, nil
	}

	cfg, err := userconfig.Load()
	if err != nil {
		return nil, err
	}

	if r.webURL == "" {
		r.webURL = strings.TrimRight(firstNonEmpty(globalWeb(g), os.Getenv(envWebURL), cfg.Web()), "/")
	}

	if r.client == nil {
		backend := strings.TrimRight(firstNonEmpty(globalBackend(g), os.Getenv(envBackendURL), cfg.Backend()), "/")
		mode, err := apiclient.ParseCredentialMode(cfg.CredentialMode)
		if err != nil {
			return nil, err
		}
		r.client = apiclient.New(backend, apiPrefix, mode)
	}

	if r.store == nil {
		host, err := backendHost(r.client.BaseURL())
		if err != nil {
			return nil, err
		}
		r.store = tokenstore.NewKeyringStore(host)
	}

	return r, nil
}

// baseRuntime applies opts over the defaults without resolving a backend
func baseRuntime(g *Globals, opts ...Option) *runtime {
	r := &runtime{
		out:     os.Stdout,
		toggler: theme.NewToggler(theme.Light),
		openURL: openBrowser,
	}
	if g != nil && g.Dark {
		r.toggler = theme.NewToggler(theme.Dark)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// session returns a fresh Session Context over the stored token
func (r *runtime) session() *session.Context {
	return session.New(r.store, r.client, session.WithLogger(logger.Component("session")))
}

func (r *runtime) palette() theme.Palette {
	return theme.PaletteFor(r.toggler.Current())
}

func (r *runtime) success(format string, args ...any) {
	fmt.Fprintln(r.out, r.palette().Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (r *runtime) info(format string, args ...any) {
	fmt.Fprintln(r.out, r.palette().Text.Render(fmt.Sprintf(format, args...)))
}

func (r *runtime) hint(format string, args ...any) {
	fmt.Fprintln(r.out, r.palette().Muted.Render(fmt.Sprintf(format, args...)))
}

func (r *runtime) failure(format string, args ...any) {
	fmt.Fprintln(r.out, r.palette().Error.Render("✗ "+fmt.Sprintf(format, args...)))
}

// webLink is path on the web front end
func (r *runtime) webLink(path string) string {
	return r.webURL + path
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func backendHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid backend URL %q", baseURL)
	}
	return u.Host, nil
}

func globalBackend(g *Globals) string {
	if g == nil {
		return ""
	}
	return g.BackendURL
}

func globalWeb(g *Globals) string {
	if g == nil {
		return ""
	}
	return g.WebURL
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
