package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusCancelled:
		return true
	default:
		return false
	}
}

// Live reports whether the enrollment counts toward session capacity and
// grants occurrence access.
func (s EnrollmentStatus) Live() bool {
	return s == EnrollmentStatusEnrolled || s == EnrollmentStatusActive
}

// Enrollment binds a learner to a session. StartDate and EndDate are a
// snapshot of the session terms taken at admission time so later catalog
// edits do not retroactively change an admitted learner's validity window.
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	LearnerID         string           `db:"learner_id" json:"learner_id"`
	SessionID         string           `db:"session_id" json:"session_id"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt        time.Time        `db:"enrolled_at" json:"enrolled_at"`
	StartDate         time.Time        `db:"start_date" json:"start_date"`
	EndDate           time.Time        `db:"end_date" json:"end_date"`
	CertificateIssued bool             `db:"certificate_issued" json:"certificate_issued"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with session info.
type EnrollmentDetail struct {
	Enrollment
	SessionTitle  string        `db:"session_title" json:"session_title"`
	SessionStatus SessionStatus `db:"session_status" json:"session_status"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	LearnerID string
	SessionID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
