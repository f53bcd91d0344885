package models

import "time"

// Modality identifies how an occurrence is delivered.
type Modality string

const (
	ModalityInPerson   Modality = "in_person"
	ModalityRemoteLive Modality = "remote_live"
	ModalitySelfPaced  Modality = "self_paced"
)

// Valid returns true when the modality is a supported value.
func (m Modality) Valid() bool {
	switch m {
	case ModalityInPerson, ModalityRemoteLive, ModalitySelfPaced:
		return true
	default:
		return false
	}
}

// Live reports whether the modality follows the live-event join window
// rather than a dedicated access window.
func (m Modality) Live() bool {
	return m == ModalityInPerson || m == ModalityRemoteLive
}

// SessionStatus represents the publication state of a session.
type SessionStatus string

const (
	SessionStatusDraft     SessionStatus = "draft"
	SessionStatusPublished SessionStatus = "published"
	SessionStatusArchived  SessionStatus = "archived"
)

// Session is a capacity-bounded training offering. The catalog owns every
// field except current_participants, which is mutated only by admissions.
type Session struct {
	ID                  string        `db:"id" json:"id"`
	Title               string        `db:"title" json:"title"`
	Status              SessionStatus `db:"status" json:"status"`
	MaxParticipants     *int          `db:"max_participants" json:"max_participants,omitempty"`
	CurrentParticipants int           `db:"current_participants" json:"current_participants"`
	StartDate           time.Time     `db:"start_date" json:"start_date"`
	EndDate             time.Time     `db:"end_date" json:"end_date"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// Enrollable reports whether new admissions are accepted.
func (s *Session) Enrollable() bool {
	return s != nil && s.Status == SessionStatusPublished
}

// SessionFilter scopes catalog listing queries.
type SessionFilter struct {
	Status    SessionStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SessionOccurrence is one scheduled instance of a session. Self-paced
// occurrences carry a dedicated access window independent of the nominal
// schedule; live occurrences carry venue or meeting details.
type SessionOccurrence struct {
	ID          string     `db:"id" json:"id"`
	SessionID   string     `db:"session_id" json:"session_id"`
	Modality    Modality   `db:"modality" json:"modality"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time  `db:"ends_at" json:"ends_at"`
	AccessStart *time.Time `db:"access_start" json:"access_start,omitempty"`
	AccessEnd   *time.Time `db:"access_end" json:"access_end,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	IsCancelled bool       `db:"is_cancelled" json:"is_cancelled"`

	MeetingURL      *string `db:"meeting_url" json:"meeting_url,omitempty"`
	MeetingID       *string `db:"meeting_id" json:"meeting_id,omitempty"`
	MeetingPassword *string `db:"meeting_password" json:"meeting_password,omitempty"`
	Address         *string `db:"address" json:"address,omitempty"`
	Building        *string `db:"building" json:"building,omitempty"`
	Room            *string `db:"room" json:"room,omitempty"`
	ContentURL      *string `db:"content_url" json:"content_url,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
