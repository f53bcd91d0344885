package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

// EnrollmentRepository handles persistence of enrollments and owns the only
// write path to the session participant counter. The schema backs it up with
// a partial unique index on (learner_id, session_id) WHERE status IN
// ('enrolled','active') and a CHECK (current_participants <= max_participants)
// constraint as a second line of defense behind the Admit transaction.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, learner_id, session_id, status, enrolled_at, start_date, end_date, certificate_issued, created_at, updated_at`

// Admit executes the full admission unit atomically: it takes a row lock on
// the session, re-checks the duplicate and capacity rules under that lock,
// inserts the enrollment with the session terms snapshotted onto it, and
// increments current_participants. Two concurrent admissions for the same
// session serialize on the lock, so the counter can never overshoot capacity.
func (r *EnrollmentRepository) Admit(ctx context.Context, learnerID, sessionID string) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var session models.Session
	lockQuery := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1 FOR UPDATE", sessionColumns)
	if err := tx.GetContext(ctx, &session, lockQuery, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !session.Enrollable() {
		return nil, appErrors.ErrSessionNotEnrollable
	}

	var exists int
	const dupQuery = `SELECT 1 FROM enrollments WHERE learner_id = $1 AND session_id = $2 AND status IN ($3, $4) LIMIT 1`
	err = tx.GetContext(ctx, &exists, dupQuery, learnerID, sessionID, models.EnrollmentStatusEnrolled, models.EnrollmentStatusActive)
	if err == nil {
		return nil, appErrors.ErrDuplicateEnrollment
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check duplicate enrollment: %w", err)
	}

	if session.MaxParticipants != nil && session.CurrentParticipants >= *session.MaxParticipants {
		return nil, appErrors.ErrCapacityExceeded
	}

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:         uuid.NewString(),
		LearnerID:  learnerID,
		SessionID:  sessionID,
		Status:     models.EnrollmentStatusEnrolled,
		EnrolledAt: now,
		StartDate:  session.StartDate,
		EndDate:    session.EndDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	const insertQuery = `INSERT INTO enrollments (id, learner_id, session_id, status, enrolled_at, start_date, end_date, certificate_issued, created_at, updated_at)
        VALUES (:id, :learner_id, :session_id, :status, :enrolled_at, :start_date, :end_date, :certificate_issued, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	const counterQuery = `UPDATE sessions SET current_participants = current_participants + 1, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, counterQuery, sessionID, now); err != nil {
		return nil, fmt.Errorf("increment participants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission: %w", err)
	}
	return enrollment, nil
}

// Cancel flips a live enrollment to cancelled and releases its capacity slot
// in the same transaction, keeping current_participants equal to the number
// of live enrollments.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id string) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var enrollment models.Enrollment
	lockQuery := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1 FOR UPDATE", enrollmentColumns)
	if err := tx.GetContext(ctx, &enrollment, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}

	wasLive := enrollment.Status.Live()
	now := time.Now().UTC()
	const statusQuery = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, statusQuery, id, models.EnrollmentStatusCancelled, now); err != nil {
		return nil, fmt.Errorf("cancel enrollment: %w", err)
	}

	if wasLive {
		const releaseQuery = `UPDATE sessions SET current_participants = GREATEST(current_participants - 1, 0), updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, releaseQuery, enrollment.SessionID, now); err != nil {
			return nil, fmt.Errorf("release participant slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	enrollment.Status = models.EnrollmentStatusCancelled
	enrollment.UpdatedAt = now
	return &enrollment, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with session context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.learner_id, e.session_id, e.status, e.enrolled_at, e.start_date, e.end_date,
        e.certificate_issued, e.created_at, e.updated_at,
        s.title AS session_title, s.status AS session_status
        FROM enrollments e
        JOIN sessions s ON s.id = e.session_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindLiveByLearnerAndSession returns the learner's enrolled/active
// enrollment for a session when one exists.
func (r *EnrollmentRepository) FindLiveByLearnerAndSession(ctx context.Context, learnerID, sessionID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE learner_id = $1 AND session_id = $2 AND status IN ($3, $4) LIMIT 1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, learnerID, sessionID, models.EnrollmentStatusEnrolled, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e JOIN sessions s ON s.id = e.session_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.LearnerID != "" {
		where = append(where, fmt.Sprintf("e.learner_id = $%d", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	if filter.SessionID != "" {
		where = append(where, fmt.Sprintf("e.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSorts := map[string]string{
		"enrolled_at":   "e.enrolled_at",
		"session_title": "s.title",
		"status":        "e.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT e.id, e.learner_id, e.session_id, e.status, e.enrolled_at, e.start_date, e.end_date,
        e.certificate_issued, e.created_at, e.updated_at,
        s.title AS session_title, s.status AS session_status
        %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// UpdateStatus updates the lifecycle status for an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}
