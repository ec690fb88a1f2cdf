package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/authz"
	"faderbank/internal/models"
	"faderbank/internal/services"
	"faderbank/pkg/apperrors"
)

type ChannelHandler struct {
	channelService *services.ChannelService
	memberService  *services.MemberService
}

func NewChannelHandler(channelService *services.ChannelService, memberService *services.MemberService) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		memberService:  memberService,
	}
}

// requireRole resolves the caller's role in a profile and checks it covers
// the operation.
func (h *ChannelHandler) requireRole(c *gin.Context, profileID uint, op authz.Operation) bool {
	role, err := h.memberService.GetRole(c.Request.Context(), profileID, currentUser(c))
	if err != nil {
		fail(c, err)
		return false
	}
	if !authz.Allow(role, op) {
		fail(c, apperrors.PermissionDenied(op.String()+" requires a higher role"))
		return false
	}
	return true
}

// ListChannels godoc
// @Summary List a profile's channel strips
// @Description Strips come back in their fader bank order
// @Tags channels
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {array} models.ChannelStrip
// @Failure 403 {object} map[string]interface{} "Not a member"
// @Router /profiles/{id}/channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if !h.requireRole(c, profileID, authz.OpViewProfile) {
		return
	}
	strips, err := h.channelService.List(c.Request.Context(), profileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, strips)
}

// CreateChannel godoc
// @Summary Add a channel strip
// @Description Technician and up. The strip is appended at the end of the bank
// @Tags channels
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body models.CreateChannelRequest true "Strip data"
// @Success 201 {object} models.ChannelStrip
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /profiles/{id}/channels [post]
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strip, err := h.channelService.Create(c.Request.Context(), currentUser(c), profileID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, strip)
}

// GetChannel godoc
// @Summary Get one channel strip
// @Tags channels
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} models.ChannelStrip
// @Failure 404 {object} map[string]interface{} "Channel not found"
// @Router /channels/{id} [get]
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	channelID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	strip, err := h.channelService.GetByID(c.Request.Context(), channelID)
	if err != nil {
		fail(c, err)
		return
	}
	if !h.requireRole(c, strip.ProfileID, authz.OpViewProfile) {
		return
	}
	c.JSON(http.StatusOK, strip)
}

// UpdateChannel godoc
// @Summary Edit a channel strip's configuration
// @Description Technician and up. Sparse update; omitted fields stay as they are
// @Tags channels
// @Accept json
// @Produce json
// @Param id path int true "Channel ID"
// @Param request body models.ChannelStripUpdate true "Fields to change"
// @Success 200 {object} models.ChannelStrip
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /channels/{id} [put]
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	channelID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.ChannelStripUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strip, err := h.channelService.Update(c.Request.Context(), currentUser(c), channelID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, strip)
}

// DeleteChannel godoc
// @Summary Remove a channel strip
// @Description Technician and up. Remaining strips keep their relative order
// @Tags channels
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /channels/{id} [delete]
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	channelID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.channelService.Delete(c.Request.Context(), currentUser(c), channelID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel deleted"})
}

// ReorderChannels godoc
// @Summary Reorder a profile's channel strips
// @Description Technician and up. The order must name every strip exactly once
// @Tags channels
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body models.ReorderChannelsRequest true "New order of channel IDs"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]interface{} "Order is not a permutation"
// @Router /profiles/{id}/channels/reorder [post]
func (h *ChannelHandler) ReorderChannels(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.ReorderChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channelService.Reorder(c.Request.Context(), currentUser(c), profileID, req.Order); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channels reordered"})
}

// ReportVU godoc
// @Summary Bulk meter report
// @Description Operator and up. Hardware bridges push a whole bank of VU levels per tick
// @Tags channels
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body map[string]interface{} true "Map of channel ID to VU level"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Router /profiles/{id}/vu [post]
func (h *ChannelHandler) ReportVU(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if !h.requireRole(c, profileID, authz.OpOperate) {
		return
	}
	var req struct {
		Levels map[uint]int `json:"levels" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channelService.SetVUBulk(c.Request.Context(), profileID, req.Levels); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Levels recorded"})
}
