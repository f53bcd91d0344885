package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type mockAttendanceRepo struct {
	// keyed by enrollmentID + occurrenceID to mirror the storage conflict key
	records map[string]models.AttendanceRecord
	writes  int
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	m.writes++
	key := record.EnrollmentID + record.OccurrenceID
	stored, ok := m.records[key]
	if !ok {
		stored = *record
		stored.ID = "att-1"
	} else {
		stored.Outcome = record.Outcome
	}
	if record.RecordedAt.IsZero() {
		stored.RecordedAt = time.Now().UTC()
	} else {
		stored.RecordedAt = record.RecordedAt
	}
	m.records[key] = stored
	return &stored, nil
}

func (m *mockAttendanceRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error) {
	var list []models.AttendanceRecord
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error) {
	summary := &models.AttendanceSummary{}
	for _, r := range m.records {
		if r.EnrollmentID != enrollmentID {
			continue
		}
		summary.Total++
		switch r.Outcome {
		case models.AttendanceOutcomePresent:
			summary.Present++
		case models.AttendanceOutcomeLate:
			summary.Late++
		case models.AttendanceOutcomeAbsent:
			summary.Absent++
		}
	}
	return summary, nil
}

func (m *mockAttendanceRepo) Roster(ctx context.Context, occurrenceID string) ([]models.RosterRow, error) {
	var rows []models.RosterRow
	for _, r := range m.records {
		if r.OccurrenceID == occurrenceID {
			rows = append(rows, models.RosterRow{
				EnrollmentID: r.EnrollmentID,
				LearnerID:    "l1",
				Outcome:      r.Outcome,
				RecordedAt:   r.RecordedAt,
			})
		}
	}
	return rows, nil
}

type mockEnrollmentReader struct {
	enrollments map[string]models.Enrollment
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo) {
	repo := &mockAttendanceRepo{}
	enrollments := &mockEnrollmentReader{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", LearnerID: "l1", SessionID: "s1", Status: models.EnrollmentStatusActive},
	}}
	catalog := &mockOccurrenceCatalog{occurrences: map[string]models.SessionOccurrence{
		"o1": {ID: "o1", SessionID: "s1", Modality: models.ModalityInPerson, StartsAt: time.Now().UTC(), IsActive: true},
		"o2": {ID: "o2", SessionID: "other", Modality: models.ModalityInPerson, IsActive: true},
	}}
	svc := NewAttendanceService(repo, enrollments, catalog, nil, NewMetricsService(), validator.New(), zap.NewNop())
	return svc, repo
}

func TestAttendanceServiceRecord(t *testing.T) {
	svc, repo := newAttendanceFixture()

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o1", Outcome: models.AttendanceOutcomePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOutcomePresent, record.Outcome)
	assert.Equal(t, 1, repo.writes)
}

func TestAttendanceServiceRecordOverwrites(t *testing.T) {
	svc, repo := newAttendanceFixture()

	first, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o1", Outcome: models.AttendanceOutcomeAbsent,
	})
	require.NoError(t, err)

	second, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o1", Outcome: models.AttendanceOutcomePresent,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.AttendanceOutcomePresent, second.Outcome)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceServiceRecordRejectsUnknownOutcome(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o1", Outcome: "excused",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAttendanceServiceRecordRejectsForeignOccurrence(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o2", Outcome: models.AttendanceOutcomePresent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAttendanceServiceRecordUnknownEnrollment(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "missing", OccurrenceID: "o1", Outcome: models.AttendanceOutcomePresent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAttendanceServiceRecordUnknownOccurrence(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "missing", Outcome: models.AttendanceOutcomePresent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOccurrenceNotFound))
}

func TestAttendanceServiceListWithSummary(t *testing.T) {
	svc, _ := newAttendanceFixture()

	for _, outcome := range []models.AttendanceOutcome{models.AttendanceOutcomePresent, models.AttendanceOutcomeLate} {
		_, err := svc.Record(context.Background(), RecordAttendanceRequest{
			EnrollmentID: "e1", OccurrenceID: "o1", Outcome: outcome,
		})
		require.NoError(t, err)
	}

	records, summary, err := svc.List(context.Background(), "e1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Late)
}

func TestAttendanceServiceExportRosterCSV(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", OccurrenceID: "o1", Outcome: models.AttendanceOutcomePresent,
	})
	require.NoError(t, err)

	result, err := svc.ExportRoster(context.Background(), "o1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Learner,Outcome,Recorded At"))
	assert.Contains(t, content, "present")
}

func TestAttendanceServiceExportRosterUnknownFormat(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.ExportRoster(context.Background(), "o1", "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
