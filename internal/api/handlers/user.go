package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// GetMe godoc
// @Summary The caller's resolved identity
// @Description Echoes what the identity gateway reported for this session
// @Tags users
// @Produce json
// @Success 200 {object} models.Identity
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":      currentUser(c),
		"display_name": currentDisplayName(c),
	})
}
