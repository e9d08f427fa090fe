// Package schedule turns raw schedule exports (CSV rows or PDF text lines)
// into candidate records ready for reconciliation.
package schedule

import (
	"context"
	"fmt"
	"strings"
)

// RoomUnassigned is used when a source line carries no room.
const RoomUnassigned = "S/N"

// Candidate is one parsed schedule row: a section meeting on one or more days.
type Candidate struct {
	Line       int      `json:"line"`
	NRC        string   `json:"nrc"`
	CourseCode string   `json:"course_code"`
	Title      string   `json:"title"`
	Section    string   `json:"section"`
	Days       []string `json:"days"` // one day letter per element, as found in the source
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Professor  string   `json:"professor"`
	Room       string   `json:"room"`
}

// DayCode joins the day letters back into the compact source form.
func (c Candidate) DayCode() string {
	return strings.Join(c.Days, "")
}

// Skip records an input row that did not become (part of) a record.
type Skip struct {
	Line   int    `json:"line"`
	NRC    string `json:"nrc,omitempty"`
	Reason string `json:"reason"`
}

func (s Skip) String() string {
	if s.NRC != "" {
		return fmt.Sprintf("line %d (NRC %s): %s", s.Line, s.NRC, s.Reason)
	}
	return fmt.Sprintf("line %d: %s", s.Line, s.Reason)
}

// Source yields the candidates of one schedule export.
type Source interface {
	Read(ctx context.Context) ([]Candidate, []Skip, error)
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitLast splits s at its last space: "Intro to Computing A" => ("Intro to Computing", "A").
// Without a space, head is empty and tail is s.
func splitLast(s string) (head, tail string) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// explode returns each letter of a day code as its own element.
func explode(code string) []string {
	out := make([]string, 0, len(code))
	for _, r := range code {
		if r == ' ' || r == '\t' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}
