package schedule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/yigit/horario/internal/pkg/apperrors"
)

// Day column names seen in exports; which one is present varies by file.
const (
	DayColumnPlural   = "Dias"
	DayColumnSingular = "Dia"
)

// requiredColumns must appear in the header besides one of the day columns.
var requiredColumns = []string{"NRC", "Clave", "Materia", "Secc", "Hora", "Salon", "Profesor"}

// csvRow is one header-mapped row. Only one of Dias/Dia is filled, depending
// on the header of the file being read.
type csvRow struct {
	NRC      string `csv:"NRC"`
	Clave    string `csv:"Clave"`
	Materia  string `csv:"Materia"`
	Secc     string `csv:"Secc"`
	Dias     string `csv:"Dias,omitempty"`
	Dia      string `csv:"Dia,omitempty"`
	Hora     string `csv:"Hora"`
	Salon    string `csv:"Salon"`
	Profesor string `csv:"Profesor"`
}

// CSVSource reads a schedule export in CSV form.
type CSVSource struct {
	Path string
	log  zerolog.Logger
}

// NewCSVSource creates a CSVSource for path
func NewCSVSource(path string, lgr zerolog.Logger) *CSVSource {
	return &CSVSource{Path: path, log: lgr}
}

// Read opens the file and parses it with ParseCSV.
func (s *CSVSource) Read(ctx context.Context) ([]Candidate, []Skip, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperrors.NewSourceNotFoundError(s.Path)
		}
		return nil, nil, fmt.Errorf("open csv %s: %w", s.Path, err)
	}
	defer f.Close()

	return ParseCSV(ctx, f, s.log)
}

// ParseCSV decodes a header-mapped schedule CSV. A leading UTF-8 byte-order
// mark is stripped. The day column is resolved from the header before any
// row is decoded. Rows with a malformed time range or an empty day field are
// reported as skips; the returned error is reserved for unreadable input.
func ParseCSV(ctx context.Context, r io.Reader, lgr zerolog.Logger) ([]Candidate, []Skip, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: missing header", apperrors.ErrParseMismatch)
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	dayColumn, err := resolveDayColumn(header)
	if err != nil {
		return nil, nil, err
	}
	lgr.Debug().Str("dayColumn", dayColumn).Strs("header", header).Msg("CSV header resolved")

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, nil, fmt.Errorf("create csv decoder: %w", err)
	}

	var (
		candidates []Candidate
		skips      []Skip
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var row csvRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrParseMismatch, err)
		}
		line, _ := reader.FieldPos(0)
		if err != nil {
			skips = append(skips, Skip{Line: line, Reason: err.Error()})
			continue
		}

		days := row.Dias
		if dayColumn == DayColumnSingular {
			days = row.Dia
		}

		c, reason := row.candidate(days)
		if reason != "" {
			lgr.Warn().Int("line", line).Str("nrc", c.NRC).Msg(reason)
			skips = append(skips, Skip{Line: line, NRC: c.NRC, Reason: reason})
			continue
		}
		c.Line = line
		candidates = append(candidates, c)
	}

	return candidates, skips, nil
}

func (row csvRow) candidate(days string) (Candidate, string) {
	c := Candidate{
		NRC:        collapse(row.NRC),
		CourseCode: collapse(row.Clave),
		Title:      collapse(row.Materia),
		Section:    collapse(row.Secc),
		Days:       explode(strings.TrimSpace(days)),
		Professor:  collapse(row.Profesor),
		Room:       collapse(row.Salon),
	}
	if c.NRC == "" {
		return c, "empty NRC"
	}
	if len(c.Days) == 0 {
		return c, "empty day field"
	}

	start, end, err := NormalizeTimeRange(row.Hora)
	if err != nil {
		return c, err.Error()
	}
	c.StartTime, c.EndTime = start, end

	if c.Room == "" {
		c.Room = RoomUnassigned
	}
	return c, ""
}

// resolveDayColumn checks the header and reports which day column it uses.
func resolveDayColumn(header []string) (string, error) {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = struct{}{}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing required header column(s): %s", apperrors.ErrParseMismatch, strings.Join(missing, ", "))
	}

	if _, ok := present[DayColumnPlural]; ok {
		return DayColumnPlural, nil
	}
	if _, ok := present[DayColumnSingular]; ok {
		return DayColumnSingular, nil
	}
	return "", fmt.Errorf("%w: missing day column (%s or %s)", apperrors.ErrParseMismatch, DayColumnPlural, DayColumnSingular)
}
