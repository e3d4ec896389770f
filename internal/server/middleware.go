package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillcred/skillcred/internal/auth"
	"github.com/skillcred/skillcred/internal/metrics"
	"github.com/skillcred/skillcred/internal/session"
	"github.com/skillcred/skillcred/internal/tokenstore"
)

const (
	sessionKey        = "session"
	sessionContextKey = "session_context"
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set(sessionKey, sessionData)
}

// GetSessionData returns the identity verified by the route guard
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := value.(*auth.SessionData)
	return sessionData, ok
}

// sessionMiddleware gives every page request its own Session Context backed
// by the visitor's token cookie
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	cookieOpts := tokenstore.CookieOptions{
		Secure: s.config.Session.CookieSecure,
		MaxAge: s.config.Session.TokenMaxAge,
	}

	return func(c *gin.Context) {
		store := tokenstore.NewCookieStore(c.Writer, c.Request, cookieOpts)
		sess := session.New(store, s.client,
			session.WithLogger(s.logger.With().Str("component", "session").Logger()))

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// sessionFrom returns the request's Session Context
func sessionFrom(c *gin.Context) *session.Context {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	sess, _ := value.(*session.Context)
	return sess
}

// loggingMiddleware logs every request with zerolog and counts it
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), status)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
