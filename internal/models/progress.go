package models

import "time"

// ProgressReport is the derived completion state for an enrollment. The
// certificate-eligibility collaborator reads Percentage; this engine does not
// decide thresholds.
type ProgressReport struct {
	EnrollmentID        string    `json:"enrollment_id"`
	SessionID           string    `json:"session_id"`
	TotalOccurrences    int       `json:"total_occurrences"`
	AttendedOccurrences int       `json:"attended_occurrences"`
	Percentage          float64   `json:"percentage"`
	GeneratedAt         time.Time `json:"generated_at"`
}
