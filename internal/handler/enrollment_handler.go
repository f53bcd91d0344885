package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-access-api/internal/middleware"
	"github.com/noah-isme/tms-access-api/internal/models"
	"github.com/noah-isme/tms-access-api/internal/service"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
	"github.com/noah-isme/tms-access-api/pkg/response"
)

// EnrollmentHandler exposes admission and enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	admissions *service.AdmissionService
	progress   *service.ProgressService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(admissions *service.AdmissionService, progress *service.ProgressService) *EnrollmentHandler {
	return &EnrollmentHandler{admissions: admissions, progress: progress}
}

// Enroll godoc
// @Summary Admit a learner into a session
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// Learner-facing callers enroll themselves; the learner ID comes from
	// the token unless an admin supplies one explicitly.
	if claims := middleware.Claims(c); claims != nil && req.LearnerID == "" {
		req.LearnerID = claims.LearnerID
	}
	enrollment, err := h.admissions.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param learnerId query string false "Filter by learner"
// @Param sessionId query string false "Filter by session"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.LearnerID = c.Query("learnerId")
	filter.SessionID = c.Query("sessionId")
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.admissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment detail with a progress snapshot
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	detail, err := h.admissions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{}
	if report, err := h.progress.Compute(c.Request.Context(), id); err == nil {
		meta["progress"] = report
	}
	response.JSON(c, http.StatusOK, detail, nil, meta)
}

// Cancel godoc
// @Summary Cancel an enrollment and release its capacity slot
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	enrollment, err := h.admissions.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Complete godoc
// @Summary Mark an enrollment completed
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/complete [post]
func (h *EnrollmentHandler) Complete(c *gin.Context) {
	detail, err := h.admissions.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
