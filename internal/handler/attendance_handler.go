package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-access-api/internal/service"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
	"github.com/noah-isme/tms-access-api/pkg/response"
)

// AttendanceHandler exposes the attendance ledger.
type AttendanceHandler struct {
	attendance     *service.AttendanceService
	exportsEnabled bool
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, exportsEnabled bool) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exportsEnabled: exportsEnabled}
}

// Record godoc
// @Summary Record or overwrite an attendance outcome
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary List an enrollment's attendance history
// @Tags Attendance
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/attendance [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	records, summary, err := h.attendance.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"summary": summary}
	response.JSON(c, http.StatusOK, records, nil, meta)
}

// ExportRoster godoc
// @Summary Export the attendance roster for an occurrence
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Occurrence ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200
// @Router /occurrences/{id}/roster [get]
func (h *AttendanceHandler) ExportRoster(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "roster exports are disabled"))
		return
	}
	result, err := h.attendance.ExportRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
