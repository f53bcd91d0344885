package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type sessionCatalogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	ListOccurrencesBySession(ctx context.Context, sessionID string) ([]models.SessionOccurrence, error)
}

// SessionService exposes read-only catalog views. The catalog itself is
// maintained by the external course-management system.
type SessionService struct {
	repo   sessionCatalogRepository
	logger *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(repo sessionCatalogRepository, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, logger: logger}
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
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
	return sessions, pagination, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// ListOccurrences returns a session's occurrences ordered by schedule.
func (s *SessionService) ListOccurrences(ctx context.Context, sessionID string) ([]models.SessionOccurrence, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	occurrences, err := s.repo.ListOccurrencesBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}
	return occurrences, nil
}
