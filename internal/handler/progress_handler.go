package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-access-api/internal/service"
	"github.com/noah-isme/tms-access-api/pkg/response"
)

// ProgressHandler exposes the derived completion progress.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Get godoc
// @Summary Compute completion progress for an enrollment
// @Tags Progress
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/progress [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	report, err := h.progress.Compute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
