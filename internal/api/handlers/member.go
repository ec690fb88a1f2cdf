package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/models"
	"faderbank/internal/services"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// ListMembers godoc
// @Summary List a profile's members
// @Description Members come back ordered by role seniority
// @Tags members
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {array} models.MemberResponse
// @Failure 403 {object} map[string]interface{} "Not a member"
// @Router /profiles/{id}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	members, err := h.memberService.List(c.Request.Context(), currentUser(c), profileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// UpdateMemberRole godoc
// @Summary Change a member's role
// @Description Admin and up. Admins cannot touch other admins or promote to admin; the owner's role is fixed
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param userId path int true "Target user ID"
// @Param request body models.UpdateMemberRoleRequest true "New role"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Change not allowed for this actor/target pair"
// @Router /profiles/{id}/members/{userId} [put]
func (h *MemberHandler) UpdateMemberRole(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.memberService.UpdateRole(c.Request.Context(), currentUser(c), profileID, targetID, req.Role); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// RemoveMember godoc
// @Summary Remove a member from a profile
// @Description Admin and up, same pairing rules as role changes. The owner cannot be removed. A removed holder loses responsibility
// @Tags members
// @Produce json
// @Param id path int true "Profile ID"
// @Param userId path int true "Target user ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Removal not allowed for this actor/target pair"
// @Router /profiles/{id}/members/{userId} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	if err := h.memberService.Remove(c.Request.Context(), currentUser(c), profileID, targetID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
