package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type occurrenceCatalog interface {
	FindOccurrenceByID(ctx context.Context, id string) (*models.SessionOccurrence, error)
}

type liveEnrollmentReader interface {
	FindLiveByLearnerAndSession(ctx context.Context, learnerID, sessionID string) (*models.Enrollment, error)
}

// AccessService is the time-gated access gate. Live occurrences open a
// configurable lead time before their scheduled start and close at the
// scheduled end; self-paced occurrences use their own access window,
// independent of the nominal schedule.
type AccessService struct {
	catalog     occurrenceCatalog
	enrollments liveEnrollmentReader
	joinLead    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAccessService constructs AccessService.
func NewAccessService(catalog occurrenceCatalog, enrollments liveEnrollmentReader, joinLead time.Duration, metrics *MetricsService, logger *zap.Logger) *AccessService {
	if joinLead <= 0 {
		joinLead = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{catalog: catalog, enrollments: enrollments, joinLead: joinLead, metrics: metrics, logger: logger}
}

// CheckAccess evaluates whether the learner may access the occurrence at the
// given moment. The decision is deterministic for a fixed now; callers retry
// OUTSIDE_ACCESS_WINDOW only by waiting for the clock.
func (s *AccessService) CheckAccess(ctx context.Context, learnerID, occurrenceID string, now time.Time) (*models.AccessGrant, error) {
	occurrence, err := s.catalog.FindOccurrenceByID(ctx, occurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			s.metrics.RecordAccessCheck("unknown", "not_found")
			return nil, appErrors.ErrOccurrenceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}

	modality := string(occurrence.Modality)

	if _, err := s.enrollments.FindLiveByLearnerAndSession(ctx, learnerID, occurrence.SessionID); err != nil {
		if err == sql.ErrNoRows {
			s.metrics.RecordAccessCheck(modality, "not_enrolled")
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if occurrence.IsCancelled {
		s.metrics.RecordAccessCheck(modality, "denied")
		return nil, appErrors.Clone(appErrors.ErrOutsideAccessWindow, "occurrence has been cancelled")
	}
	if !occurrence.IsActive {
		s.metrics.RecordAccessCheck(modality, "denied")
		return nil, appErrors.Clone(appErrors.ErrOutsideAccessWindow, "occurrence is not active")
	}

	windowStart, windowEnd, err := s.accessWindow(occurrence)
	if err != nil {
		s.metrics.RecordAccessCheck(modality, "denied")
		return nil, err
	}

	if now.Before(windowStart) || now.After(windowEnd) {
		s.metrics.RecordAccessCheck(modality, "denied")
		return nil, s.denial(occurrence, windowStart, windowEnd)
	}

	s.metrics.RecordAccessCheck(modality, "granted")
	return &models.AccessGrant{
		OccurrenceID: occurrence.ID,
		SessionID:    occurrence.SessionID,
		Modality:     occurrence.Modality,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		CheckedAt:    now,
		Payload:      payloadFor(occurrence),
	}, nil
}

// accessWindow resolves the inclusive [start, end] window for an occurrence.
func (s *AccessService) accessWindow(occurrence *models.SessionOccurrence) (time.Time, time.Time, error) {
	if occurrence.Modality == models.ModalitySelfPaced {
		if occurrence.AccessStart == nil || occurrence.AccessEnd == nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrOutsideAccessWindow, "occurrence has no access window configured")
		}
		return *occurrence.AccessStart, *occurrence.AccessEnd, nil
	}
	return occurrence.StartsAt.Add(-s.joinLead), occurrence.EndsAt, nil
}

func (s *AccessService) denial(occurrence *models.SessionOccurrence, windowStart, windowEnd time.Time) error {
	if occurrence.Modality == models.ModalitySelfPaced {
		return appErrors.Clone(appErrors.ErrOutsideAccessWindow,
			fmt.Sprintf("content is available from %s to %s",
				windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)))
	}
	return appErrors.Clone(appErrors.ErrOutsideAccessWindow,
		fmt.Sprintf("joining opens %d minutes before the scheduled start and closes at the scheduled end",
			int(s.joinLead.Minutes())))
}

// payloadFor selects the modality-specific connection details. The fields are
// opaque pass-through data from the catalog.
func payloadFor(occurrence *models.SessionOccurrence) models.AccessPayload {
	switch occurrence.Modality {
	case models.ModalityRemoteLive:
		return models.AccessPayload{
			MeetingURL:      occurrence.MeetingURL,
			MeetingID:       occurrence.MeetingID,
			MeetingPassword: occurrence.MeetingPassword,
		}
	case models.ModalityInPerson:
		return models.AccessPayload{
			Address:  occurrence.Address,
			Building: occurrence.Building,
			Room:     occurrence.Room,
		}
	default:
		return models.AccessPayload{ContentURL: occurrence.ContentURL}
	}
}
