package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tms-access-api/internal/models"
)

// SessionRepository reads the session and occurrence catalog. The catalog is
// owned by the external course-management system; this engine only ever
// mutates current_participants, and does so inside the admission transaction
// in EnrollmentRepository.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, title, status, max_participants, current_participants, start_date, end_date, created_at, updated_at`

// FindByID returns a session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions filtered by the provided criteria.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	allowedSorts := map[string]string{
		"title":      "title",
		"start_date": "start_date",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM sessions WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		sessionColumns, whereClause, orderBy, order, size, offset)

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sessions WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

const occurrenceColumns = `id, session_id, modality, starts_at, ends_at, access_start, access_end,
        is_active, is_cancelled, meeting_url, meeting_id, meeting_password, address, building, room, content_url,
        created_at, updated_at`

// FindOccurrenceByID returns a single occurrence.
func (r *SessionRepository) FindOccurrenceByID(ctx context.Context, id string) (*models.SessionOccurrence, error) {
	query := fmt.Sprintf("SELECT %s FROM session_occurrences WHERE id = $1", occurrenceColumns)
	var occurrence models.SessionOccurrence
	if err := r.db.GetContext(ctx, &occurrence, query, id); err != nil {
		return nil, err
	}
	return &occurrence, nil
}

// ListOccurrencesBySession returns all occurrences for a session ordered by schedule.
func (r *SessionRepository) ListOccurrencesBySession(ctx context.Context, sessionID string) ([]models.SessionOccurrence, error) {
	query := fmt.Sprintf("SELECT %s FROM session_occurrences WHERE session_id = $1 ORDER BY starts_at ASC", occurrenceColumns)
	var occurrences []models.SessionOccurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, sessionID); err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return occurrences, nil
}

// CountActiveOccurrences counts a session's non-cancelled occurrences.
// Cancelled occurrences never count toward the progress denominator.
func (r *SessionRepository) CountActiveOccurrences(ctx context.Context, sessionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM session_occurrences WHERE session_id = $1 AND is_cancelled = FALSE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, sessionID); err != nil {
		return 0, fmt.Errorf("count occurrences: %w", err)
	}
	return total, nil
}
