package models

import "github.com/google/uuid"

// Section is one offered instance of a course, keyed by NRC within a program.
type Section struct {
	ID             uuid.UUID `json:"id" db:"id"`
	NRC            string    `json:"nrc" db:"nrc"`
	CourseCode     string    `json:"course_code" db:"course_code"`
	Title          string    `json:"title" db:"title"`
	SectionLabel   string    `json:"section_label" db:"section_label"`
	InstructorID   uuid.UUID `json:"instructor_id" db:"instructor_id"`
	ProgramID      string    `json:"program_id" db:"program_id"`
	MaxSeats       *int      `json:"max_seats,omitempty" db:"max_seats"`             // Nullable, not set by imports
	AvailableSeats *int      `json:"available_seats,omitempty" db:"available_seats"` // Nullable, not set by imports
}

// ToRecord returns the insertable column map; the id is assigned by the store.
func (s Section) ToRecord() map[string]any {
	return map[string]any{
		"nrc":             s.NRC,
		"course_code":     s.CourseCode,
		"title":           s.Title,
		"section_label":   s.SectionLabel,
		"instructor_id":   s.InstructorID,
		"program_id":      s.ProgramID,
		"max_seats":       s.MaxSeats,
		"available_seats": s.AvailableSeats,
	}
}
