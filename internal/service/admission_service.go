package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type admissionRepository interface {
	Admit(ctx context.Context, learnerID, sessionID string) (*models.Enrollment, error)
	Cancel(ctx context.Context, id string) (*models.Enrollment, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

// EnrollRequest describes an admission attempt.
type EnrollRequest struct {
	LearnerID string `json:"learner_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// AdmissionService decides whether a learner may be admitted into a session
// and owns the enrollment lifecycle. The duplicate and capacity rules are
// enforced inside the repository's admission transaction; this service maps
// outcomes, validates input and keeps metrics.
type AdmissionService struct {
	repo      admissionRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdmissionService constructs AdmissionService.
func NewAdmissionService(repo admissionRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Enroll admits a learner into a session. Errors are reported verbatim to
// the caller and never retried here.
func (s *AdmissionService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	enrollment, err := s.repo.Admit(ctx, req.LearnerID, req.SessionID)
	if err != nil {
		s.metrics.RecordAdmission(admissionOutcome(err))
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to admit learner")
	}

	s.metrics.RecordAdmission("admitted")
	s.logger.Info("learner admitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("learner_id", req.LearnerID),
		zap.String("session_id", req.SessionID))
	return enrollment, nil
}

// List returns enrollments with pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns an enrollment with session context.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Complete marks a live enrollment completed. The completion decision itself
// belongs to the certificate collaborator, which reads the progress value
// before calling this.
func (s *AdmissionService) Complete(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Status.Live() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not live")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
	}
	s.invalidateProgress(ctx, id)
	return s.Get(ctx, id)
}

// Cancel administratively cancels an enrollment, releasing its capacity slot.
func (s *AdmissionService) Cancel(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Cancel(ctx, id)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	s.invalidateProgress(ctx, id)
	s.logger.Info("enrollment cancelled", zap.String("enrollment_id", id))
	return enrollment, nil
}

func (s *AdmissionService) invalidateProgress(ctx context.Context, enrollmentID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, progressCacheKey(enrollmentID))
}

func admissionOutcome(err error) string {
	switch {
	case appErrors.Is(err, appErrors.ErrSessionNotFound):
		return "session_not_found"
	case appErrors.Is(err, appErrors.ErrSessionNotEnrollable):
		return "session_not_enrollable"
	case appErrors.Is(err, appErrors.ErrDuplicateEnrollment):
		return "duplicate"
	case appErrors.Is(err, appErrors.ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return "error"
	}
}
