package models

import "time"

// AccessPayload carries the modality-specific connection details returned on
// a granted access check. Fields are opaque pass-through data from the
// catalog; the engine does not validate their contents.
type AccessPayload struct {
	MeetingURL      *string `json:"meeting_url,omitempty"`
	MeetingID       *string `json:"meeting_id,omitempty"`
	MeetingPassword *string `json:"meeting_password,omitempty"`
	Address         *string `json:"address,omitempty"`
	Building        *string `json:"building,omitempty"`
	Room            *string `json:"room,omitempty"`
	ContentURL      *string `json:"content_url,omitempty"`
}

// AccessGrant is the success result of an access check.
type AccessGrant struct {
	OccurrenceID string        `json:"occurrence_id"`
	SessionID    string        `json:"session_id"`
	Modality     Modality      `json:"modality"`
	WindowStart  time.Time     `json:"window_start"`
	WindowEnd    time.Time     `json:"window_end"`
	CheckedAt    time.Time     `json:"checked_at"`
	Payload      AccessPayload `json:"payload"`
}
