package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", "Início", nil)
}

func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "sobre.html", "Sobre Nós", nil)
}

// ChatDemo is a static mock-up; no messages are stored.
func (h *Handler) ChatDemo(c *gin.Context) {
	h.render(c, http.StatusOK, "chat-demonstrativo.html", "Chat Demonstrativo", nil)
}
