package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context, principal *models.Principal) ([]models.AdminDetail, error)
	Promote(ctx context.Context, principal *models.Principal, req dto.PromoteAdminRequest) (*models.Admin, error)
	Demote(ctx context.Context, principal *models.Principal, teacherID int64) error
	Stats(ctx context.Context, principal *models.Principal) (*dto.AdminStats, error)
	UserScope(ctx context.Context, userID int64) (*models.AdminScope, error)
	ModelStatus(ctx context.Context) (*dto.ModelStatusResponse, error)
}

type settingsService interface {
	Load(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, req dto.SettingsRequest) (models.Settings, error)
}

// AdminHandler exposes admin management, scope inspection and grading settings.
type AdminHandler struct {
	admins   adminService
	settings settingsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admins adminService, settings settingsService) *AdminHandler {
	return &AdminHandler{admins: admins, settings: settings}
}

// Stats godoc
// @Summary Entity counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.admins.Stats(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// List godoc
// @Summary List admins
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	admins, err := h.admins.List(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil)
}

// Promote godoc
// @Summary Promote a teacher to admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.PromoteAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Router /admin/admins [post]
func (h *AdminHandler) Promote(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PromoteAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid admin payload"))
		return
	}
	admin, err := h.admins.Promote(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Demote godoc
// @Summary Remove the admin record of a teacher
// @Tags Admin
// @Param id path int true "Teacher ID"
// @Success 204
// @Router /admin/admins/{id} [delete]
func (h *AdminHandler) Demote(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teacherID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.admins.Demote(c.Request.Context(), principal, teacherID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UserScope godoc
// @Summary Admin scope of a user
// @Description Returns null when the user is not an admin
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/scope [get]
func (h *AdminHandler) UserScope(c *gin.Context) {
	userID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	scope, err := h.admins.UserScope(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": scope})
}

// ModelStatus godoc
// @Summary Academic model reconciliation progress
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/model-status [get]
func (h *AdminHandler) ModelStatus(c *gin.Context) {
	status, err := h.admins.ModelStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Settings godoc
// @Summary Grading thresholds
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *AdminHandler) Settings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Update grading thresholds
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.SettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid settings payload"))
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
