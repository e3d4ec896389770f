package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillcred/skillcred/internal/theme"
)

func (s *Server) rootRedirect(c *gin.Context) {
	c.Redirect(http.StatusPermanentRedirect, "/applicant")
}

func (s *Server) landingPage(c *gin.Context) {
	s.render(c, http.StatusOK, "landing.html", page{Title: "SkillCred"})
}

func (s *Server) invalidTokenPage(c *gin.Context) {
	s.render(c, http.StatusOK, "invalid.html", page{Title: "Invalid or Expired Token"})
}

// toggleTheme flips the theme for the rest of the browser session and
// returns to the page the toggle was pressed on
func (s *Server) toggleTheme(c *gin.Context) {
	next := themeFrom(c).Toggle()

	c.SetSameSite(http.SameSiteLaxMode)
	// MaxAge 0 keeps the cookie for the browser session only
	c.SetCookie(theme.CookieName, string(next), 0, "/", "", s.config.Session.CookieSecure, false)

	c.Redirect(http.StatusSeeOther, safeReturnPath(c.PostForm("return_to")))
}
