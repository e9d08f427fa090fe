package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/yigit/horario/internal/pkg/apperrors"
)

const (
	// baselineTolerance is how far apart, in points, two glyph baselines can
	// be and still belong to the same text line.
	baselineTolerance = 2.0
	// wordGap is the horizontal distance, in points, between two glyphs of a
	// line that is read as a space.
	wordGap = 1.0
)

// PDFSource reads a scanned/printed timetable whose text layer follows the
// line grammar of ParseLine.
type PDFSource struct {
	Path string
	log  zerolog.Logger
}

// NewPDFSource creates a PDFSource for path
func NewPDFSource(path string, lgr zerolog.Logger) *PDFSource {
	return &PDFSource{Path: path, log: lgr}
}

// Read rebuilds the text lines of every page and parses them one by one.
// Lines are numbered across the whole document. Non-matching lines are not
// reported.
func (s *PDFSource) Read(ctx context.Context) ([]Candidate, []Skip, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return nil, nil, apperrors.NewSourceNotFoundError(s.Path)
	}

	f, r, err := pdf.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf %s: %w", s.Path, err)
	}
	defer f.Close()

	var (
		candidates []Candidate
		lineNo     = 1
	)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return nil, nil, fmt.Errorf("extract text of page %d: %w", i, err)
		}

		found := ParseLines(lines, lineNo)
		s.log.Debug().Int("page", i).Int("lines", len(lines)).Int("records", len(found)).Msg("PDF page parsed")
		candidates = append(candidates, found...)
		lineNo += len(lines)
	}

	return candidates, nil, nil
}

// pageLines groups the glyphs of page by baseline, top to bottom, and joins
// each group left to right. Writers position rows with Td, TD, Tm or T*, so
// the glyph coordinates are the only reliable line boundary.
func pageLines(page pdf.Page) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	glyphs := page.Content().Text
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Y > glyphs[j].Y
	})

	var row []pdf.Text
	for _, g := range glyphs {
		if len(row) > 0 && row[0].Y-g.Y > baselineTolerance {
			lines = append(lines, joinRow(row))
			row = nil
		}
		row = append(row, g)
	}
	if len(row) > 0 {
		lines = append(lines, joinRow(row))
	}
	return lines, nil
}

// joinRow orders the glyphs of one line by X and inserts a space wherever
// two consecutive glyphs do not touch.
func joinRow(row []pdf.Text) string {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X < row[j].X
	})

	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			if g.X-(prev.X+prev.W) > wordGap {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
