package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/yigit/horario/internal/migration"
)

func printSummary(w io.Writer, s *migration.Summary, dryRun bool) {
	title := fmt.Sprintf("\n=== Migration summary, term %s ===\n", s.Term)
	if dryRun {
		title = fmt.Sprintf("\n=== Dry run summary, term %s (nothing written) ===\n", s.Term)
	}
	color.New(color.FgCyan, color.Bold).Fprint(w, title)
	if s.FullReset {
		color.New(color.FgYellow).Fprintln(w, "Store was fully reset before importing.")
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Program", "Parsed", "Instructors", "Sections", "Blocks", "Skipped", "Conflicts", "Status"})
	parsed, skipped, conflicts := 0, 0, 0
	for _, p := range s.Programs {
		parsed += p.Parsed
		skipped += len(p.Skips)
		conflicts += len(p.Conflicts)
		table.Append([]string{
			p.Program.ID,
			fmt.Sprint(p.Parsed),
			fmt.Sprint(p.InstructorsInserted),
			fmt.Sprint(p.SectionsInserted),
			fmt.Sprint(p.BlocksInserted),
			fmt.Sprint(len(p.Skips)),
			fmt.Sprint(len(p.Conflicts)),
			status(p),
		})
	}
	instructors, sections, blocks := s.Totals()
	table.SetFooter([]string{
		"Total",
		fmt.Sprint(parsed),
		fmt.Sprint(instructors),
		fmt.Sprint(sections),
		fmt.Sprint(blocks),
		fmt.Sprint(skipped),
		fmt.Sprint(conflicts),
		"",
	})
	table.Render()

	warn := color.New(color.FgYellow)
	for _, p := range s.Programs {
		for _, c := range p.Conflicts {
			if c.Stored {
				warn.Fprintf(w, "  %s NRC %s: %s differs from the stored section: %q (stored kept)\n", p.Program.ID, c.NRC, c.Field, c.Values)
				continue
			}
			warn.Fprintf(w, "  %s NRC %s: %s differs across rows: %q (first kept)\n", p.Program.ID, c.NRC, c.Field, c.Values)
		}
	}
	for _, p := range s.Programs {
		if len(p.Skips) > 0 {
			warn.Fprintf(w, "\n%s:", p.Program.ID)
			printSkips(w, p.Skips)
		}
	}
	for _, p := range s.Failures() {
		color.New(color.FgRed).Fprintf(w, "  %s failed: %v\n", p.Program.ID, p.Err)
	}
}

func status(p migration.ProgramSummary) string {
	switch {
	case p.SourceMissing:
		return "source missing"
	case p.Err != nil:
		return "failed"
	default:
		return "ok"
	}
}
