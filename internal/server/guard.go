package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillcred/skillcred/internal/auth"
	"github.com/skillcred/skillcred/internal/oauthflow"
)

// routeGuard verifies the visitor with the backend on every request to a
// protected page. Any failure redirects to the login page before the page
// handler runs. A verified visitor asking for another user's page is sent to
// their own.
func (s *Server) routeGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)

		snap, err := sess.Verify(c.Request.Context())
		if err != nil {
			s.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Authentication check failed")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if userID := c.Param("userId"); userID != "" && userID != snap.UserID {
			s.logger.Warn().Str("path_user_id", userID).Str("user_id", snap.UserID).Msg("Profile path belongs to another user")
			c.Redirect(http.StatusFound, oauthflow.Destination(snap.UserID))
			c.Abort()
			return
		}

		setSession(c, &auth.SessionData{
			UserID:     snap.UserID,
			Email:      snap.Email,
			AuthMethod: s.client.Mode().String(),
		})

		c.Next()
	}
}
