package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/models"
	"faderbank/internal/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ListProfiles godoc
// @Summary List the caller's profiles
// @Description Get every fader bank profile the current user is a member of
// @Tags profiles
// @Produce json
// @Success 200 {array} models.ProfileSummary
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /profiles [get]
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profileService.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// CreateProfile godoc
// @Summary Create a profile
// @Description Create a fader bank profile; the caller becomes its owner
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body models.CreateProfileRequest true "Profile data"
// @Success 201 {object} models.Profile
// @Failure 400 {object} map[string]interface{} "Invalid name or slug"
// @Failure 409 {object} map[string]interface{} "Slug already taken"
// @Router /profiles [post]
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.profileService.CreateProfile(c.Request.Context(), req.Name, req.Slug, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// GetProfile godoc
// @Summary Get a profile
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} map[string]interface{} "Profile not found"
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.profileService.GetByID(c.Request.Context(), profileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfileBySlug godoc
// @Summary Resolve a profile by its slug
// @Tags profiles
// @Produce json
// @Param slug path string true "Profile slug"
// @Success 200 {object} models.Profile
// @Failure 404 {object} map[string]interface{} "Profile not found"
// @Router /profiles/by-slug/{slug} [get]
func (h *ProfileHandler) GetProfileBySlug(c *gin.Context) {
	profile, err := h.profileService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CheckSlug godoc
// @Summary Check slug availability
// @Description Report whether a slug is free, with a suggestion derived from the name
// @Tags profiles
// @Produce json
// @Param slug query string false "Slug to check"
// @Param name query string false "Name to derive a suggestion from"
// @Success 200 {object} map[string]interface{}
// @Router /profiles/slug-check [get]
func (h *ProfileHandler) CheckSlug(c *gin.Context) {
	slugStr := c.Query("slug")
	if slugStr == "" {
		slugStr = services.SuggestSlug(c.Query("name"))
	}
	available, err := h.profileService.SlugAvailable(c.Request.Context(), slugStr, 0)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slugStr, "available": available})
}

// UpdateProfile godoc
// @Summary Rename a profile or change its slug
// @Description Name changes need admin access, slug changes owner access
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body models.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Insufficient role"
// @Failure 409 {object} map[string]interface{} "Slug already taken"
// @Router /profiles/{id} [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.profileService.UpdateProfile(c.Request.Context(), currentUser(c), profileID, &req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// DeleteProfile godoc
// @Summary Delete a profile
// @Description Owner only. Removes the profile with its channels and memberships
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Router /profiles/{id} [delete]
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.profileService.DeleteProfile(c.Request.Context(), currentUser(c), profileID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}

// TransferOwnership godoc
// @Summary Transfer profile ownership
// @Description Owner only. The previous owner stays on as an admin
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param request body models.TransferOwnershipRequest true "New owner"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 400 {object} map[string]interface{} "Target is not a member"
// @Router /profiles/{id}/transfer [post]
func (h *ProfileHandler) TransferOwnership(c *gin.Context) {
	profileID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req models.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.profileService.TransferOwnership(c.Request.Context(), currentUser(c), profileID, req.NewOwnerID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred"})
}
