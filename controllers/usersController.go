package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/middleware"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/services"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/session"
)

const registerPath = "/cadastro"

type registerForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Name     string `form:"nome"`
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (h *Handler) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "cadastro.html", "Cadastro", nil)
}

// Register creates the account and sends the visitor to the login page.
func (h *Handler) Register(c *gin.Context) {
	var body registerForm
	if err := c.ShouldBind(&body); err != nil {
		h.Log.WithError(err).Warn("invalid register form")
		h.redirect(c, registerPath)
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		// Email is unique, so a taken address lands here too.
		h.logFailure(err, "failed to register user")
		h.redirect(c, registerPath)
		return
	}

	h.Log.WithField("user_id", user.ID).Info("user registered")
	h.redirect(c, middleware.LoginPath)
}

func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", "Login", nil)
}

// Login authenticates the visitor and binds the user to a fresh session.
func (h *Handler) Login(c *gin.Context) {
	var body loginForm
	if err := c.ShouldBind(&body); err != nil {
		h.Log.WithError(err).Warn("invalid login form")
		h.redirect(c, middleware.LoginPath)
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.Log.WithField("email", repository.NormalizeEmail(body.Email)).Info("login rejected")
		} else {
			h.Log.WithError(err).Error("login failed")
		}
		h.redirect(c, middleware.LoginPath)
		return
	}

	sess, err := h.Sessions.Get(c.Request, session.CookieName)
	if err != nil {
		// The old record is unreadable; start over with an empty session.
		h.Log.WithError(err).Warn("discarding unreadable session")
	}
	if err := h.Sessions.Login(c.Request, c.Writer, sess, user.ID); err != nil {
		h.Log.WithError(err).Error("failed to create session")
		h.redirect(c, middleware.LoginPath)
		return
	}

	h.Log.WithField("user_id", user.ID).Info("user logged in")
	h.redirect(c, listPath)
}

// Logout destroys the session record and expires the cookie.
func (h *Handler) Logout(c *gin.Context) {
	sess, err := h.Sessions.Get(c.Request, session.CookieName)
	if err == nil {
		err = h.Sessions.Destroy(c.Request, c.Writer, sess)
	}
	if err != nil {
		h.Log.WithError(err).Error("failed to destroy session")
		c.String(http.StatusInternalServerError, "Erro ao fazer logout.")
		return
	}

	h.Log.WithField("user_id", c.GetUint(middleware.UserIDKey)).Info("user logged out")
	h.redirect(c, middleware.LoginPath)
}
