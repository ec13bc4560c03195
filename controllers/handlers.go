package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/session"
)

const genericErrorMessage = "Ocorreu um erro inesperado. Tente novamente mais tarde."

// Catalog is the part of the persistence layer the item handlers use.
type Catalog interface {
	ListItems(ctx context.Context, opts ...repository.ListOption) ([]models.FoodItem, error)
	CreateItem(ctx context.Context, item *models.FoodItem) error
	DeleteItem(ctx context.Context, id uint) error
	CreateRating(ctx context.Context, itemID uint, value int) (*models.Rating, error)
	Ping(ctx context.Context) error
}

// Accounts registers and authenticates users.
type Accounts interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Handler holds the application's dependencies, making them explicit.
type Handler struct {
	Catalog  Catalog
	Accounts Accounts
	Sessions *session.Store
	Log      logrus.FieldLogger
}

// NewHandler creates a new handler with its dependencies.
func NewHandler(catalog Catalog, accounts Accounts, sessions *session.Store, log logrus.FieldLogger) *Handler {
	return &Handler{
		Catalog:  catalog,
		Accounts: accounts,
		Sessions: sessions,
		Log:      log,
	}
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	if err := h.Catalog.Ping(c.Request.Context()); err != nil {
		h.Log.WithError(err).Error("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"alive": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alive": true})
}

// ## Helper Methods

// render shows a page; every page knows whether the visitor is logged in.
func (h *Handler) render(c *gin.Context, code int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["isAuthenticated"] = h.isAuthenticated(c)
	c.HTML(code, name, data)
}

func (h *Handler) serverError(c *gin.Context, err error, msg string) {
	h.Log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	h.render(c, http.StatusInternalServerError, "error.html", "Erro", gin.H{"message": genericErrorMessage})
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) isAuthenticated(c *gin.Context) bool {
	sess, err := h.Sessions.Get(c.Request, session.CookieName)
	if err != nil {
		h.Log.WithError(err).Warn("failed to read session")
		return false
	}
	_, ok := session.UserID(sess)
	return ok
}

func (h *Handler) parseID(idStr string) (uint, error) {
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
