package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-access-api/internal/middleware"
	"github.com/noah-isme/tms-access-api/internal/service"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
	"github.com/noah-isme/tms-access-api/pkg/response"
)

// AccessHandler exposes the time-gated access check.
type AccessHandler struct {
	access       *service.AccessService
	allowAtParam bool
}

// NewAccessHandler constructs AccessHandler.
func NewAccessHandler(access *service.AccessService, allowAtParam bool) *AccessHandler {
	return &AccessHandler{access: access, allowAtParam: allowAtParam}
}

// Check godoc
// @Summary Check access to an occurrence
// @Tags Access
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param at query string false "RFC3339 evaluation time override (debug deployments only)"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id}/access [get]
func (h *AccessHandler) Check(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil || claims.LearnerID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	now := time.Now().UTC()
	if h.allowAtParam {
		if raw := c.Query("at"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid at parameter, expected RFC3339"))
				return
			}
			now = parsed
		}
	}

	grant, err := h.access.CheckAccess(c.Request.Context(), claims.LearnerID, c.Param("id"), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grant, nil)
}
