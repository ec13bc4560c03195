package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/session"
)

const (
	// UserIDKey is the gin context key holding the authenticated user's id.
	UserIDKey = "userID"

	LoginPath = "/login"
)

// RequireAuth lets the request through only when the session carries a user
// id; everyone else is redirected to the login page.
func RequireAuth(store sessions.Store, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, session.CookieName)
		if err != nil {
			log.WithError(err).Warn("session lookup failed, treating request as anonymous")
		}

		userID, ok := session.UserID(sess)
		if !ok {
			log.WithField("path", c.Request.URL.Path).Info("access denied: not authenticated, redirecting to login")
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
