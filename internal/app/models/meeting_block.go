package models

import "github.com/google/uuid"

// MeetingBlock is one weekday occurrence of a section's weekly meeting.
type MeetingBlock struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SectionID uuid.UUID `json:"section_id" db:"section_id"`
	NRC       string    `json:"nrc" db:"nrc"`                     // Denormalized from the section
	Day       Weekday   `json:"day" db:"day"`
	StartTime string    `json:"start_time" db:"start_time"`       // HH:MM:SS
	EndTime   string    `json:"end_time" db:"end_time"`           // HH:MM:SS
	Room      string    `json:"room" db:"room"`
	Building  *string   `json:"building,omitempty" db:"building"` // Nullable, not set by imports
	TermID    Term      `json:"term_id" db:"term_id"`
}

// ToRecord returns the insertable column map; the id is assigned by the store.
func (b MeetingBlock) ToRecord() map[string]any {
	return map[string]any{
		"section_id": b.SectionID,
		"nrc":        b.NRC,
		"day":        string(b.Day),
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
		"room":       b.Room,
		"building":   b.Building,
		"term_id":    string(b.TermID),
	}
}
