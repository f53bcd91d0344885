package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type occurrenceCounter interface {
	CountActiveOccurrences(ctx context.Context, sessionID string) (int, error)
}

type presenceCounter interface {
	CountPresent(ctx context.Context, enrollmentID string) (int, error)
}

// ProgressService derives the completion percentage consumed by the external
// certificate-eligibility collaborator. It owns no state; everything is a
// read aggregation over the attendance ledger and the occurrence catalog.
type ProgressService struct {
	enrollments enrollmentReader
	occurrences occurrenceCounter
	attendance  presenceCounter
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewProgressService constructs ProgressService.
func NewProgressService(enrollments enrollmentReader, occurrences occurrenceCounter, attendance presenceCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		enrollments: enrollments,
		occurrences: occurrences,
		attendance:  attendance,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func progressCacheKey(enrollmentID string) string {
	return fmt.Sprintf("progress:enrollment:%s", enrollmentID)
}

// Compute returns the enrollment's progress report. Cancelled occurrences are
// excluded from the denominator; a session with no countable occurrences
// yields 0, never a division error.
func (s *ProgressService) Compute(ctx context.Context, enrollmentID string) (*models.ProgressReport, error) {
	cacheKey := progressCacheKey(enrollmentID)
	if s.cache != nil {
		var cached models.ProgressReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	total, err := s.occurrences.CountActiveOccurrences(ctx, enrollment.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count occurrences")
	}

	attended, err := s.attendance.CountPresent(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}

	report := &models.ProgressReport{
		EnrollmentID:        enrollmentID,
		SessionID:           enrollment.SessionID,
		TotalOccurrences:    total,
		AttendedOccurrences: attended,
		Percentage:          percentage(attended, total),
		GeneratedAt:         time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("progress cache write failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
	}
	return report, nil
}

// percentage rounds attended/total to two decimal places.
func percentage(attended, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(total)*100*100) / 100
}
