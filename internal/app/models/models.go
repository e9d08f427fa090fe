package models

// Collection names as they exist in the store.
const (
	CollectionInstructors   = "instructors"
	CollectionSections      = "sections"
	CollectionMeetingBlocks = "meeting_blocks"
)

// Weekday is a day on which a section meets. Values are the lowercase Spanish
// names stored in meeting_blocks.day.
type Weekday string

// Weekday constants
const (
	Lunes     Weekday = "lunes"
	Martes    Weekday = "martes"
	Miercoles Weekday = "miercoles"
	Jueves    Weekday = "jueves"
	Viernes   Weekday = "viernes"
	Sabado    Weekday = "sabado"
)

// Weekdays lists every valid weekday in calendar order.
var Weekdays = []Weekday{Lunes, Martes, Miercoles, Jueves, Viernes, Sabado}

// Valid reports whether d is one of the six enumerated weekdays.
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Term identifies an academic period (e.g. "PA2026"). Meeting blocks carry
// the term; sections do not.
type Term string
