package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(maxParticipants, currentParticipants int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "title", "status", "max_participants", "current_participants",
		"start_date", "end_date", "created_at", "updated_at",
	}).AddRow("sess-1", "Go Fundamentals", models.SessionStatusPublished,
		maxParticipants, currentParticipants, now, now.Add(30*24*time.Hour), now, now)
}

func expectSessionLock(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id = \\$1 FOR UPDATE").
		WithArgs("sess-1")
}

func expectDuplicateProbe(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE learner_id = $1 AND session_id = $2 AND status IN ($3, $4) LIMIT 1")).
		WithArgs("learner-1", "sess-1", models.EnrollmentStatusEnrolled, models.EnrollmentStatusActive)
}

func TestEnrollmentRepositoryAdmit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnRows(sessionRows(10, 3))
	expectDuplicateProbe(mock).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "learner-1", "sess-1", models.EnrollmentStatusEnrolled,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET current_participants = current_participants + 1, updated_at = $2 WHERE id = $1")).
		WithArgs("sess-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	require.Equal(t, "learner-1", enrollment.LearnerID)
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitSessionNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrSessionNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitNotEnrollable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "status", "max_participants", "current_participants",
		"start_date", "end_date", "created_at", "updated_at",
	}).AddRow("sess-1", "Go Fundamentals", models.SessionStatusDraft, 10, 0, now, now, now, now)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrSessionNotEnrollable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnRows(sessionRows(10, 3))
	expectDuplicateProbe(mock).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicateEnrollment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitCapacityExceeded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnRows(sessionRows(5, 5))
	expectDuplicateProbe(mock).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitUnlimitedCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "status", "max_participants", "current_participants",
		"start_date", "end_date", "created_at", "updated_at",
	}).AddRow("sess-1", "Go Fundamentals", models.SessionStatusPublished, nil, 5000, now, now, now, now)

	mock.ExpectBegin()
	expectSessionLock(mock).WillReturnRows(rows)
	expectDuplicateProbe(mock).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET current_participants = current_participants + 1, updated_at = $2 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Admit(context.Background(), "learner-1", "sess-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func enrollmentRow(status models.EnrollmentStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "learner_id", "session_id", "status", "enrolled_at",
		"start_date", "end_date", "certificate_issued", "created_at", "updated_at",
	}).AddRow("enr-1", "learner-1", "sess-1", status, now, now, now, false, now, now)
}

func TestEnrollmentRepositoryCancelReleasesSlot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM enrollments WHERE id = \\$1 FOR UPDATE").
		WithArgs("enr-1").
		WillReturnRows(enrollmentRow(models.EnrollmentStatusEnrolled))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET current_participants = GREATEST(current_participants - 1, 0), updated_at = $2 WHERE id = $1")).
		WithArgs("sess-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Cancel(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusCancelled, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCancelCompletedKeepsCounter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM enrollments WHERE id = \\$1 FOR UPDATE").
		WithArgs("enr-1").
		WillReturnRows(enrollmentRow(models.EnrollmentStatusCompleted))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Cancel(context.Background(), "enr-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindLiveByLearnerAndSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM enrollments WHERE learner_id = \\$1 AND session_id = \\$2 AND status IN \\(\\$3, \\$4\\) LIMIT 1").
		WithArgs("learner-1", "sess-1", models.EnrollmentStatusEnrolled, models.EnrollmentStatusActive).
		WillReturnRows(enrollmentRow(models.EnrollmentStatusActive))

	enrollment, err := repo.FindLiveByLearnerAndSession(context.Background(), "learner-1", "sess-1")
	require.NoError(t, err)
	require.Equal(t, "enr-1", enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
