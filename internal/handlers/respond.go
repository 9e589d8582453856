package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ctxUserID is where RequireAuth leaves the authenticated user id.
const ctxUserID = "userID"

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// serverError logs err and answers with msg only; internals never reach the
// client.
func serverError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg,
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	fail(c, http.StatusInternalServerError, msg)
}
