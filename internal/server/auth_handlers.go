package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/oauthflow"
	"github.com/skillcred/skillcred/internal/session"
	"github.com/skillcred/skillcred/internal/toast"
)

const (
	msgGenericError       = "An error occurred"
	msgSignupSuccess      = "Signup successful!"
	msgLoginSuccess       = "Login successful!"
	msgInvalidCredentials = "Please enter a valid email and password."
	msgGitHubUnavailable  = "GitHub sign-in is not available right now."

	stateCookieName = "oauth_state"
	stateCookiePath = "/auth/callback"
	stateCookieTTL  = 10 * time.Minute
)

// credentialsForm is the login and signup form
type credentialsForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (s *Server) bindCredentials(c *gin.Context) (credentialsForm, bool) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		return form, false
	}
	form.Email = strings.TrimSpace(form.Email)
	return form, s.validator.Struct(form) == nil
}

func (s *Server) signupPage(c *gin.Context) {
	s.render(c, http.StatusOK, "get-started.html", page{Title: "Get Started"})
}

func (s *Server) signup(c *gin.Context) {
	form, ok := s.bindCredentials(c)
	if !ok {
		s.render(c, http.StatusBadRequest, "get-started.html", page{
			Title: "Get Started",
			Email: form.Email,
			Toast: toast.Error(msgInvalidCredentials),
		})
		return
	}

	resp, err := s.client.Signup(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Signup failed")
		s.render(c, errorStatus(err), "get-started.html", page{
			Title: "Get Started",
			Email: form.Email,
			Toast: toast.Error(apiclient.UserMessage(err, msgGenericError)),
		})
		return
	}

	sess := sessionFrom(c)
	user := resp.User()
	id := session.Identity{Email: user.Email, UserID: user.UserID}
	if err := sess.Login(id, resp.AuthToken); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store session after signup")
		s.render(c, http.StatusInternalServerError, "get-started.html", page{
			Title: "Get Started",
			Toast: toast.Error(msgGenericError),
		})
		return
	}

	message := resp.Message
	if message == "" {
		message = msgSignupSuccess
	}

	s.logger.Info().Str("user_id", id.UserID).Msg("User signed up")
	redirectAfter(c, s.config.Session.RedirectDelay, oauthflow.Destination(id.UserID))
	s.render(c, http.StatusOK, "get-started.html", page{
		Title: "Get Started",
		Toast: toast.Success(message),
	})
}

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, "login.html", page{Title: "Login"})
}

func (s *Server) login(c *gin.Context) {
	form, ok := s.bindCredentials(c)
	if !ok {
		s.render(c, http.StatusBadRequest, "login.html", page{
			Title: "Login",
			Email: form.Email,
			Toast: toast.Error(msgInvalidCredentials),
		})
		return
	}

	resp, err := s.client.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login failed")
		s.render(c, errorStatus(err), "login.html", page{
			Title: "Login",
			Email: form.Email,
			Toast: toast.Error(apiclient.UserMessage(err, msgGenericError)),
		})
		return
	}

	sess := sessionFrom(c)
	if err := sess.Login(session.Identity{Email: resp.Email, UserID: resp.UserID}, resp.AuthToken); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store session after login")
		s.render(c, http.StatusInternalServerError, "login.html", page{
			Title: "Login",
			Toast: toast.Error(msgGenericError),
		})
		return
	}

	s.logger.Info().Str("user_id", resp.UserID).Msg("User logged in")
	redirectAfter(c, s.config.Session.RedirectDelay, oauthflow.Destination(resp.UserID))
	s.render(c, http.StatusOK, "login.html", page{
		Title: "Login",
		Toast: toast.Success(msgLoginSuccess),
	})
}

func (s *Server) logout(c *gin.Context) {
	if err := sessionFrom(c).Logout(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear session")
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// githubStart sends the visitor to GitHub's authorization page
func (s *Server) githubStart(c *gin.Context) {
	state := ulid.Make().String()

	target, withState, err := oauthflow.AuthURL(s.config.GitHub, state)
	if err != nil {
		s.logger.Warn().Err(err).Msg("GitHub authorization URL unavailable")
		s.render(c, http.StatusServiceUnavailable, "login.html", page{
			Title: "Login",
			Toast: toast.Error(msgGitHubUnavailable),
		})
		return
	}

	if withState {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookieName, state, int(stateCookieTTL.Seconds()), stateCookiePath, "",
			s.config.Session.CookieSecure, true)
	}
	c.Redirect(http.StatusFound, target)
}

// githubCallback completes the sign-in GitHub redirected back with
func (s *Server) githubCallback(c *gin.Context) {
	sess := sessionFrom(c)

	opts := []oauthflow.Option{
		oauthflow.WithCodeGuard(s.codeGuard),
		oauthflow.WithCountdown(s.config.Session.CountdownFrom),
		oauthflow.WithLogger(s.logger.With().Str("component", "oauth").Logger()),
	}
	if state, err := c.Cookie(stateCookieName); err == nil && state != "" {
		opts = append(opts, oauthflow.WithExpectedState(state))
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookieName, "", -1, stateCookiePath, "", s.config.Session.CookieSecure, true)
	}
	opts = append(opts, s.flowOpts...)

	flow := oauthflow.New(s.client.WithTokenSource(sess), sess, opts...)
	snap := flow.Start(c.Request.Context(), c.Request.URL.Query())

	view := &callbackView{Snapshot: snap}
	p := page{Title: "GitHub", Callback: view}

	switch snap.State {
	case oauthflow.StateSuccess:
		view.FlowID = s.flows.Add(flow)
		// Pages without script still move on when the countdown ends
		redirectAfter(c, time.Duration(snap.Countdown)*time.Second, snap.Destination)
	case oauthflow.StateError:
		flow.Close()
		p.Toast = snap.Toast()
	default:
		flow.Close()
	}

	s.render(c, http.StatusOK, "callback.html", p)
}

// githubCallbackEvents streams a flow's countdown as server-sent events. The
// flow is torn down when the stream ends.
func (s *Server) githubCallbackEvents(c *gin.Context) {
	id := c.Param("flowID")
	flow, ok := s.flows.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown or expired sign-in"})
		return
	}
	defer s.flows.Remove(id)

	updates, unsubscribe := flow.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case snap, open := <-updates:
			if !open {
				return false
			}
			if snap.State == oauthflow.StateNavigated {
				c.SSEvent("navigate", gin.H{"destination": snap.Destination})
				return false
			}
			c.SSEvent("countdown", gin.H{
				"state":       snap.State,
				"message":     snap.Message,
				"countdown":   snap.Countdown,
				"destination": snap.Destination,
			})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
