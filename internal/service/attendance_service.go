package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
	"github.com/noah-isme/tms-access-api/pkg/export"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error)
	Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error)
	Roster(ctx context.Context, occurrenceID string) ([]models.RosterRow, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

// RecordAttendanceRequest describes an attendance write.
type RecordAttendanceRequest struct {
	EnrollmentID string                   `json:"enrollment_id" validate:"required"`
	OccurrenceID string                   `json:"occurrence_id" validate:"required"`
	Outcome      models.AttendanceOutcome `json:"outcome" validate:"required"`
	RecordedAt   *time.Time               `json:"recorded_at,omitempty"`
}

// RosterExport is a rendered attendance roster.
type RosterExport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// AttendanceService records presence outcomes and exposes read aggregates.
// Writes deliberately skip the access-gate window so attendance can be
// corrected after the fact.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments enrollmentReader
	catalog     occurrenceCatalog
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments enrollmentReader, catalog occurrenceCatalog, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:        repo,
		enrollments: enrollments,
		catalog:     catalog,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
	}
}

// Record upserts the outcome for an (enrollment, occurrence) pair. A repeat
// write for the same pair overwrites the previous outcome.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Outcome.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported outcome %q", req.Outcome))
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	occurrence, err := s.catalog.FindOccurrenceByID(ctx, req.OccurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrOccurrenceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	if occurrence.SessionID != enrollment.SessionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "occurrence does not belong to the enrollment's session")
	}

	record := &models.AttendanceRecord{
		EnrollmentID: req.EnrollmentID,
		OccurrenceID: req.OccurrenceID,
		Outcome:      req.Outcome,
	}
	if req.RecordedAt != nil {
		record.RecordedAt = req.RecordedAt.UTC()
	}

	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.metrics.RecordAttendanceWrite()
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, progressCacheKey(req.EnrollmentID))
	}
	s.logger.Info("attendance recorded",
		zap.String("enrollment_id", req.EnrollmentID),
		zap.String("occurrence_id", req.OccurrenceID),
		zap.String("outcome", string(req.Outcome)))
	return stored, nil
}

// List returns the enrollment's attendance history (most recent first) with
// an outcome summary.
func (s *AttendanceService) List(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, *models.AttendanceSummary, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	records, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	summary, err := s.repo.Summary(ctx, enrollmentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}
	return records, summary, nil
}

// ExportRoster renders the recorded outcomes for an occurrence as CSV or PDF.
func (s *AttendanceService) ExportRoster(ctx context.Context, occurrenceID, format string) (*RosterExport, error) {
	occurrence, err := s.catalog.FindOccurrenceByID(ctx, occurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrOccurrenceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}

	rows, err := s.repo.Roster(ctx, occurrenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{
		Headers: []string{"Learner", "Outcome", "Recorded At"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Learner":     row.LearnerID,
			"Outcome":     string(row.Outcome),
			"Recorded At": row.RecordedAt.UTC().Format(time.RFC3339),
		})
	}

	switch format {
	case "pdf":
		title := fmt.Sprintf("Attendance %s", occurrence.StartsAt.Format("2006-01-02"))
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return &RosterExport{Content: content, ContentType: "application/pdf", Filename: fmt.Sprintf("roster-%s.pdf", occurrenceID)}, nil
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return &RosterExport{Content: content, ContentType: "text/csv", Filename: fmt.Sprintf("roster-%s.csv", occurrenceID)}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
