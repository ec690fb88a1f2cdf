package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/models"
	"faderbank/internal/services"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInvitation godoc
// @Summary Create an activation link
// @Description Admin and up; only the owner can mint admin invitations. Links expire after seven days
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body models.CreateInvitationRequest true "Role granted on redemption, guest by default"
// @Success 201 {object} models.ActivationLink
// @Failure 403 {object} map[string]interface{} "Insufficient role for that invitation"
// @Router /profiles/{id}/invitations [post]
func (h *InviteHandler) CreateInvitation(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := h.inviteService.Create(c.Request.Context(), currentUser(c), profileID, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// ListInvitations godoc
// @Summary List a profile's activation links
// @Description Admin and up. Includes used and canceled links for the audit view
// @Tags invitations
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {array} models.InvitationResponse
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /profiles/{id}/invitations [get]
func (h *InviteHandler) ListInvitations(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	links, err := h.inviteService.List(c.Request.Context(), currentUser(c), profileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// PeekInvitation godoc
// @Summary Inspect an activation link before redeeming
// @Description Shows what the link grants without consuming it
// @Tags invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} models.ActivationLink
// @Failure 404 {object} map[string]interface{} "Unknown token"
// @Failure 409 {object} map[string]interface{} "Link used, canceled or expired"
// @Router /invitations/{token} [get]
func (h *InviteHandler) PeekInvitation(c *gin.Context) {
	link, err := h.inviteService.Peek(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// RedeemInvitation godoc
// @Summary Redeem an activation link
// @Description Joins the caller to the link's profile at the granted role. A link redeems at most once
// @Tags invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} models.Profile
// @Failure 409 {object} map[string]interface{} "Link no longer valid or caller already a member"
// @Router /invitations/{token}/redeem [post]
func (h *InviteHandler) RedeemInvitation(c *gin.Context) {
	profile, err := h.inviteService.Redeem(c.Request.Context(), currentUser(c), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CancelInvitation godoc
// @Summary Cancel an activation link
// @Description Admin and up. Canceling an already-canceled link is a no-op
// @Tags invitations
// @Produce json
// @Param id path int true "Invitation ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /invitations/{id} [delete]
func (h *InviteHandler) CancelInvitation(c *gin.Context) {
	linkID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.inviteService.Cancel(c.Request.Context(), currentUser(c), linkID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation canceled"})
}
