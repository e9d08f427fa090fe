package migration

import (
	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/reconcile"
	"github.com/yigit/horario/internal/schedule"
)

// ProgramSummary is the outcome of one program within a run.
type ProgramSummary struct {
	Program             models.Program
	Parsed              int
	InstructorsInserted int
	SectionsInserted    int
	BlocksInserted      int
	Skips               []schedule.Skip
	Conflicts           []reconcile.Conflict
	SourceMissing       bool
	Err                 error
}

// Failed reports whether the program stopped before completing.
func (p ProgramSummary) Failed() bool {
	return p.Err != nil && !p.SourceMissing
}

// Summary reports what a run wrote. Counts are records actually inserted,
// which can be lower than rows parsed.
type Summary struct {
	Term      models.Term
	FullReset bool
	Programs  []ProgramSummary
}

// Totals sums inserted records across programs.
func (s *Summary) Totals() (instructors, sections, blocks int) {
	for _, p := range s.Programs {
		instructors += p.InstructorsInserted
		sections += p.SectionsInserted
		blocks += p.BlocksInserted
	}
	return instructors, sections, blocks
}

// Failures lists programs that did not complete, excluding missing sources.
func (s *Summary) Failures() []ProgramSummary {
	var out []ProgramSummary
	for _, p := range s.Programs {
		if p.Failed() {
			out = append(out, p)
		}
	}
	return out
}
