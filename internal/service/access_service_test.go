package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-access-api/internal/models"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

type mockOccurrenceCatalog struct {
	occurrences map[string]models.SessionOccurrence
}

func (m *mockOccurrenceCatalog) FindOccurrenceByID(ctx context.Context, id string) (*models.SessionOccurrence, error) {
	if o, ok := m.occurrences[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

type mockLiveEnrollments struct {
	// keyed by learnerID + sessionID
	live map[string]models.Enrollment
}

func (m *mockLiveEnrollments) FindLiveByLearnerAndSession(ctx context.Context, learnerID, sessionID string) (*models.Enrollment, error) {
	if e, ok := m.live[learnerID+sessionID]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func newAccessFixture(occurrence models.SessionOccurrence) *AccessService {
	catalog := &mockOccurrenceCatalog{occurrences: map[string]models.SessionOccurrence{occurrence.ID: occurrence}}
	enrollments := &mockLiveEnrollments{live: map[string]models.Enrollment{
		"l1" + occurrence.SessionID: {ID: "e1", LearnerID: "l1", SessionID: occurrence.SessionID, Status: models.EnrollmentStatusEnrolled},
	}}
	return NewAccessService(catalog, enrollments, 15*time.Minute, NewMetricsService(), zap.NewNop())
}

func liveOccurrence(modality models.Modality, start time.Time) models.SessionOccurrence {
	return models.SessionOccurrence{
		ID:         "o1",
		SessionID:  "s1",
		Modality:   modality,
		StartsAt:   start,
		EndsAt:     start.Add(time.Hour),
		IsActive:   true,
		MeetingURL: strPtr("https://meet.example.com/o1"),
		Address:    strPtr("1 Main St"),
		Room:       strPtr("2B"),
	}
}

func TestAccessServiceLiveWindowBoundaries(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newAccessFixture(liveOccurrence(models.ModalityRemoteLive, start))

	cases := []struct {
		name    string
		at      time.Time
		granted bool
	}{
		{"one minute before the window opens", start.Add(-16 * time.Minute), false},
		{"exactly when the window opens", start.Add(-15 * time.Minute), true},
		{"at the scheduled start", start, true},
		{"at the scheduled end", start.Add(60 * time.Minute), true},
		{"one minute after the scheduled end", start.Add(61 * time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grant, err := svc.CheckAccess(context.Background(), "l1", "o1", tc.at)
			if tc.granted {
				require.NoError(t, err)
				assert.Equal(t, start.Add(-15*time.Minute), grant.WindowStart)
				assert.Equal(t, start.Add(time.Hour), grant.WindowEnd)
			} else {
				require.Error(t, err)
				assert.True(t, appErrors.Is(err, appErrors.ErrOutsideAccessWindow))
			}
		})
	}
}

func TestAccessServiceSelfPacedIgnoresSchedule(t *testing.T) {
	// The nominal schedule is long past; only the access window matters.
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	occurrence := models.SessionOccurrence{
		ID:          "o1",
		SessionID:   "s1",
		Modality:    models.ModalitySelfPaced,
		StartsAt:    start,
		EndsAt:      start.Add(time.Hour),
		AccessStart: timePtr(now.Add(-24 * time.Hour)),
		AccessEnd:   timePtr(now.Add(24 * time.Hour)),
		IsActive:    true,
		ContentURL:  strPtr("https://lms.example.com/content/o1"),
	}
	svc := newAccessFixture(occurrence)

	grant, err := svc.CheckAccess(context.Background(), "l1", "o1", now)
	require.NoError(t, err)
	assert.Equal(t, *occurrence.AccessStart, grant.WindowStart)
	assert.Equal(t, *occurrence.AccessEnd, grant.WindowEnd)
	require.NotNil(t, grant.Payload.ContentURL)
	assert.Equal(t, "https://lms.example.com/content/o1", *grant.Payload.ContentURL)
}

func TestAccessServiceSelfPacedOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	occurrence := models.SessionOccurrence{
		ID:          "o1",
		SessionID:   "s1",
		Modality:    models.ModalitySelfPaced,
		AccessStart: timePtr(now.Add(time.Hour)),
		AccessEnd:   timePtr(now.Add(48 * time.Hour)),
		IsActive:    true,
	}
	svc := newAccessFixture(occurrence)

	_, err := svc.CheckAccess(context.Background(), "l1", "o1", now)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideAccessWindow))
}

func TestAccessServiceSelfPacedMissingWindow(t *testing.T) {
	occurrence := models.SessionOccurrence{ID: "o1", SessionID: "s1", Modality: models.ModalitySelfPaced, IsActive: true}
	svc := newAccessFixture(occurrence)

	_, err := svc.CheckAccess(context.Background(), "l1", "o1", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideAccessWindow))
}

func TestAccessServicePayloadPerModality(t *testing.T) {
	start := time.Now().UTC()
	now := start.Add(5 * time.Minute)

	remote := liveOccurrence(models.ModalityRemoteLive, start)
	grant, err := newAccessFixture(remote).CheckAccess(context.Background(), "l1", "o1", now)
	require.NoError(t, err)
	require.NotNil(t, grant.Payload.MeetingURL)
	assert.Nil(t, grant.Payload.Address)

	inPerson := liveOccurrence(models.ModalityInPerson, start)
	grant, err = newAccessFixture(inPerson).CheckAccess(context.Background(), "l1", "o1", now)
	require.NoError(t, err)
	require.NotNil(t, grant.Payload.Address)
	assert.Nil(t, grant.Payload.MeetingURL)
}

func TestAccessServiceOccurrenceNotFound(t *testing.T) {
	svc := NewAccessService(&mockOccurrenceCatalog{}, &mockLiveEnrollments{}, 15*time.Minute, NewMetricsService(), zap.NewNop())

	_, err := svc.CheckAccess(context.Background(), "l1", "missing", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOccurrenceNotFound))
}

func TestAccessServiceNotEnrolled(t *testing.T) {
	occurrence := liveOccurrence(models.ModalityRemoteLive, time.Now().UTC())
	catalog := &mockOccurrenceCatalog{occurrences: map[string]models.SessionOccurrence{"o1": occurrence}}
	svc := NewAccessService(catalog, &mockLiveEnrollments{}, 15*time.Minute, NewMetricsService(), zap.NewNop())

	_, err := svc.CheckAccess(context.Background(), "stranger", "o1", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotEnrolled))
}

func TestAccessServiceCancelledOccurrenceDenied(t *testing.T) {
	occurrence := liveOccurrence(models.ModalityRemoteLive, time.Now().UTC())
	occurrence.IsCancelled = true
	svc := newAccessFixture(occurrence)

	_, err := svc.CheckAccess(context.Background(), "l1", "o1", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideAccessWindow))
}
