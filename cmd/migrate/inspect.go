package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yigit/horario/internal/pkg/logger"
	"github.com/yigit/horario/internal/schedule"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a CSV or PDF schedule export and print what would be imported",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return withCode(exitUsage, fmt.Errorf("expected exactly one file, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			src := schedule.Open(args[0], logger.Component("inspect"))
			candidates, skips, err := src.Read(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), candidates, skips)
			}
			printCandidates(cmd.OutOrStdout(), args[0], candidates, skips)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print candidates and skips as JSON")
	return cmd
}

func printCandidates(w io.Writer, path string, candidates []schedule.Candidate, skips []schedule.Skip) {
	color.New(color.FgCyan).Fprintf(w, "\n=== %s: %d row(s) ===\n", path, len(candidates))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Line", "NRC", "Clave", "Materia", "Secc", "Dias", "Inicio", "Fin", "Profesor", "Salon"})
	for _, c := range candidates {
		table.Append([]string{
			fmt.Sprint(c.Line),
			c.NRC,
			c.CourseCode,
			c.Title,
			c.Section,
			strings.Join(c.Days, ""),
			c.StartTime,
			c.EndTime,
			c.Professor,
			c.Room,
		})
	}
	table.Render()

	printSkips(w, skips)
}

func printSkips(w io.Writer, skips []schedule.Skip) {
	if len(skips) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(w, "\n%d row(s) skipped:\n", len(skips))
	for _, s := range skips {
		warn.Fprintf(w, "  %s\n", s)
	}
}

func writeJSON(w io.Writer, candidates []schedule.Candidate, skips []schedule.Skip) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Candidates []schedule.Candidate `json:"candidates"`
		Skips      []schedule.Skip      `json:"skips"`
	}{candidates, skips}); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
