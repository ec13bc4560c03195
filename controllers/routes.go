package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/middleware"
)

// NewRouter registers every route of the application on a fresh engine.
func NewRouter(h *Handler, html render.HTMLRender, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	router.HTMLRender = html

	requireAuth := middleware.RequireAuth(h.Sessions, log)

	// Public routes
	router.GET("/", h.Home)
	router.GET("/sobre", h.About)
	router.GET("/chat-demonstrativo", h.ChatDemo)
	router.GET("/health", h.Health)
	router.GET("/alimentos", h.ListItems)

	router.GET("/cadastro", h.RegisterForm)
	router.POST("/cadastro", h.Register)
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)

	// Protected routes
	router.GET("/add-alimento", requireAuth, h.NewItemForm)
	router.POST("/add-alimento", requireAuth, h.CreateItem)
	router.POST("/alimentos/delete/:id", requireAuth, h.DeleteItem)
	router.POST("/rate-alimento", requireAuth, h.RateItem)
	router.GET("/logout", requireAuth, h.Logout)

	return router
}
