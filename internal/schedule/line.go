package schedule

import "regexp"

// linePattern matches one timetable line of a PDF export:
//
//	NRC  Clave     Materia+Secc        Dias  Hora       Profesor+Salon
//	12345 COMP 101 Intro to Computing A L 1600-1659 Jane Doe B-12
//
// X is accepted as a day letter because some exports use it; ExpandDays
// drops it later.
var linePattern = regexp.MustCompile(`(\d{5})\s+([A-Z]{4}\s\d{3})\s+(.+?)\s+([LAMJVSX]+)\s+(\d{4}-\d{4})\s+(.+)`)

// ParseLine extracts a candidate from one line of page text. Lines that do
// not fit the grammar (headers, footers, blanks) report false.
func ParseLine(line string) (Candidate, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Candidate{}, false
	}

	start, end, err := NormalizeTimeRange(m[5])
	if err != nil {
		return Candidate{}, false
	}

	title, section := splitLast(collapse(m[3]))
	professor, room := splitLast(collapse(m[6]))
	if professor == "" {
		// a single trailing word is the professor, not the room
		professor, room = room, RoomUnassigned
	}

	return Candidate{
		NRC:        m[1],
		CourseCode: collapse(m[2]),
		Title:      title,
		Section:    section,
		Days:       explode(m[4]),
		StartTime:  start,
		EndTime:    end,
		Professor:  professor,
		Room:       room,
	}, true
}

// ParseLines runs ParseLine over lines numbered from firstLine, silently
// dropping non-matching ones.
func ParseLines(lines []string, firstLine int) []Candidate {
	var out []Candidate
	for i, l := range lines {
		c, ok := ParseLine(l)
		if !ok {
			continue
		}
		c.Line = firstLine + i
		out = append(out, c)
	}
	return out
}
