package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"faderbank/internal/api/middleware"
	"faderbank/pkg/apperrors"
)

// fail maps a service error onto an HTTP status and a uniform error body.
func fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}

func currentUser(c *gin.Context) uint {
	return c.MustGet(middleware.CtxUserID).(uint)
}

func currentDisplayName(c *gin.Context) string {
	name, _ := c.Get(middleware.CtxDisplayName)
	s, _ := name.(string)
	return s
}

// uintParam parses a numeric path parameter, returning ok=false after
// writing the 400 response.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return uint(v), true
}
