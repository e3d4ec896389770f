// Package server is the SkillCred web front end. Pages are rendered on the
// server; every backend call goes through one configured API client.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httputil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/config"
	"github.com/skillcred/skillcred/internal/metrics"
	"github.com/skillcred/skillcred/internal/oauthflow"
)

//go:embed templates/*.html
var templateFS embed.FS

// flowTTL bounds how long a callback flow waits for its event stream
const flowTTL = 2 * time.Minute

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	client    *apiclient.Client
	codeGuard *oauthflow.CodeGuard
	flows     *oauthflow.Registry
	proxy     *httputil.ReverseProxy
	flowOpts  []oauthflow.Option
	version   string
}

// Option configures a Server
type Option func(*Server)

// WithFlowOptions adds options to every OAuth callback flow
func WithFlowOptions(opts ...oauthflow.Option) Option {
	return func(s *Server) { s.flowOpts = append(s.flowOpts, opts...) }
}

// WithHTTPClient replaces the HTTP client used for backend calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Server) { s.client.SetHTTPClient(httpClient) }
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	mode, err := apiclient.ParseCredentialMode(cfg.Backend.CredentialMode)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(cfg.Backend.URL, cfg.Backend.APIPrefix, mode)
	client.SetHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout})

	proxy, err := newAPIProxy(cfg.Backend.URL, mode, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		client:    client,
		codeGuard: oauthflow.NewCodeGuard(oauthflow.DefaultCodeTTL),
		flows:     oauthflow.NewRegistry(flowTTL),
		proxy:     proxy,
		version:   version,
	}
	for _, opt := range opts {
		opt(server)
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	s.router = gin.New()
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if prefix := s.config.Backend.APIPrefix; prefix != "" {
		api := s.router.Group(prefix)
		api.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
		api.Any("/*path", s.proxyAPI)
	}

	pages := s.router.Group("/")
	pages.Use(s.sessionMiddleware())
	{
		pages.GET("/", s.rootRedirect)
		pages.GET("/applicant", s.landingPage)
		pages.GET("/invalid", s.invalidTokenPage)
		pages.POST("/theme", s.toggleTheme)

		pages.GET("/get-started", s.signupPage)
		pages.POST("/get-started", s.signup)
		pages.GET("/login", s.loginPage)
		pages.POST("/login", s.login)
		pages.POST("/logout", s.logout)

		pages.GET("/auth/github", s.githubStart)
		pages.GET("/auth/callback/github", s.githubCallback)

		guarded := pages.Group("/applicant/:userId")
		guarded.Use(s.routeGuard())
		{
			guarded.GET("/complete-profile", s.completeProfilePage)
			guarded.POST("/complete-profile", s.completeProfile)
		}
	}

	// Event streams hold the connection open and carry no page session
	s.router.GET("/auth/callback/github/events/:flowID", s.githubCallbackEvents)

	return nil
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "skillcred-web",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Server.Address

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	// Stop countdowns first so event streams end
	s.flows.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
