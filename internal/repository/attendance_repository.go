package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tms-access-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records. Writes are
// keyed by (enrollment_id, occurrence_id) with upsert-on-conflict semantics,
// so concurrent re-submissions for the same pair are idempotent.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts or overwrites the outcome for an (enrollment, occurrence)
// pair. Last write wins; there is never more than one row per pair.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, enrollment_id, occurrence_id, outcome, recorded_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (enrollment_id, occurrence_id)
DO UPDATE SET outcome = EXCLUDED.outcome, recorded_at = EXCLUDED.recorded_at, updated_at = EXCLUDED.updated_at
RETURNING id, enrollment_id, occurrence_id, outcome, recorded_at, created_at, updated_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.EnrollmentID, record.OccurrenceID, record.Outcome,
		record.RecordedAt, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// ListByEnrollment returns an enrollment's attendance history, most recent first.
func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, enrollment_id, occurrence_id, outcome, recorded_at, created_at, updated_at
        FROM attendance_records WHERE enrollment_id = $1 ORDER BY recorded_at DESC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// CountPresent counts records with a present outcome for an enrollment.
func (r *AttendanceRepository) CountPresent(ctx context.Context, enrollmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance_records WHERE enrollment_id = $1 AND outcome = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, enrollmentID, models.AttendanceOutcomePresent); err != nil {
		return 0, fmt.Errorf("count present attendance: %w", err)
	}
	return total, nil
}

// Summary aggregates outcome counts for an enrollment.
func (r *AttendanceRepository) Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE outcome = 'present') AS present,
        COUNT(*) FILTER (WHERE outcome = 'late') AS late,
        COUNT(*) FILTER (WHERE outcome = 'absent') AS absent,
        COUNT(*) AS total
        FROM attendance_records WHERE enrollment_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("summarise attendance: %w", err)
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return &summary, nil
}

// Roster returns every recorded outcome for an occurrence with the learner
// behind each enrollment, ordered for stable exports.
func (r *AttendanceRepository) Roster(ctx context.Context, occurrenceID string) ([]models.RosterRow, error) {
	const query = `SELECT ar.enrollment_id, e.learner_id, ar.outcome, ar.recorded_at
        FROM attendance_records ar
        JOIN enrollments e ON e.id = ar.enrollment_id
        WHERE ar.occurrence_id = $1
        ORDER BY e.learner_id ASC`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, occurrenceID); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return rows, nil
}
