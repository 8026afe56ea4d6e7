// Package web is the HTTP surface: landing page, signup, login and the
// session-protected welcome page, rendered from embedded templates.
package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	landingTemplate = "index.html"
	loggedTemplate  = "logged.html"

	usernameKey = "username"
)

// Reasons rendered on the landing view.
const (
	ReasonInvalidEmail    = "Invalid email"
	ReasonInvalidPassword = "Invalid password"
	ReasonSessionExpired  = "Session expired, please log in again"
	ReasonInvalidSession  = "Invalid session, please log in again"

	signupFailedPrefix = "Error creating user: "
)

type SessionService interface {
	Register(ctx context.Context, req services.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.Session, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type landingView struct {
	Error string
}

type loggedView struct {
	Username string
}

type Handler struct {
	sessions SessionService
	tokens   TokenVerifier
	cookie   CookieOptions
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewHandler(s SessionService, t TokenVerifier, c CookieOptions, m *metrics.Metrics, l logging.Logger) *Handler {
	return &Handler{
		sessions: s,
		tokens:   t,
		cookie:   c.normalize(),
		metrics:  m,
		logger:   l.With("module", "web"),
	}
}

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, landingTemplate, landingView{Error: c.Query("error")})
}

func (h *Handler) Signup(c *gin.Context) {
	req := services.RegisterRequest{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}

	_, err := h.sessions.Register(c.Request.Context(), req)
	h.metrics.Registrations.WithLabelValues(metrics.Outcome(err)).Inc()

	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, common.ErrorEmailRequired), errors.Is(err, common.ErrorPasswordRequired):
		c.String(http.StatusBadRequest, signupFailedPrefix+err.Error())
	default:
		c.String(http.StatusInternalServerError, signupFailedPrefix+err.Error())
	}
}

func (h *Handler) Login(c *gin.Context) {
	req := services.LoginRequest{
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}

	session, err := h.sessions.Login(c.Request.Context(), req)
	h.metrics.Logins.WithLabelValues(metrics.Outcome(err)).Inc()

	if err != nil {
		status, reason := loginFailure(err)
		c.HTML(status, landingTemplate, landingView{Error: reason})
		return
	}

	SetSessionCookie(c.Writer, session.Token, session.ExpiresAt, h.cookie)
	c.HTML(http.StatusOK, loggedTemplate, loggedView{Username: session.Username})
}

// loginFailure maps a login error to a status code and the reason shown to
// the user.
func loginFailure(err error) (int, string) {
	var occurred *common.OccurredError

	switch {
	case errors.Is(err, common.ErrorInvalidEmail):
		return http.StatusUnauthorized, ReasonInvalidEmail
	case errors.Is(err, common.ErrorInvalidPassword):
		return http.StatusUnauthorized, ReasonInvalidPassword
	case errors.As(err, &occurred):
		return http.StatusInternalServerError, errorOccurred(occurred.Err.Error())
	default:
		return http.StatusInternalServerError, errorOccurred(err.Error())
	}
}

func errorOccurred(msg string) string {
	return "Error occurred: " + msg
}

// RequireSession lets the request through only with a valid session cookie.
// No cookie sends the client to the landing page; a bad one is also cleared.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(h.cookie.Name)

		claims, err := h.tokens.Verify(token)
		if err != nil {
			reason := ReasonInvalidSession
			if errors.Is(err, common.ErrTokenExpired) {
				reason = ReasonSessionExpired
			}
			h.logger.Info(c.Request.Context(), "rejected session token", "error", err)

			ClearSessionCookie(c.Writer, h.cookie)
			c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(reason))
			c.Abort()
			return
		}
		if claims == nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

func (h *Handler) Welcome(c *gin.Context) {
	c.HTML(http.StatusOK, loggedTemplate, loggedView{Username: c.GetString(usernameKey)})
}

func (h *Handler) Logout(c *gin.Context) {
	ClearSessionCookie(c.Writer, h.cookie)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
