package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/models"
	"faderbank/internal/services"
	"faderbank/pkg/apperrors"
)

type ResponsibilityHandler struct {
	respService   *services.ResponsibilityService
	memberService *services.MemberService
}

func NewResponsibilityHandler(respService *services.ResponsibilityService, memberService *services.MemberService) *ResponsibilityHandler {
	return &ResponsibilityHandler{
		respService:   respService,
		memberService: memberService,
	}
}

// GetResponsibility godoc
// @Summary Who holds responsibility for a profile
// @Description Read-only view of the control token. Taking and dropping happen over the socket
// @Tags responsibility
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} models.ResponsibilityState
// @Failure 403 {object} map[string]interface{} "Not a member"
// @Router /profiles/{id}/responsibility [get]
func (h *ResponsibilityHandler) GetResponsibility(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	role, err := h.memberService.GetRole(c.Request.Context(), profileID, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if role == models.RoleNone {
		fail(c, apperrors.PermissionDenied("not a member of this profile"))
		return
	}
	state, err := h.respService.State(c.Request.Context(), profileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
