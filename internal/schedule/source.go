package schedule

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Open picks the source implementation from the file extension: .pdf files
// go through text extraction, anything else is read as CSV.
func Open(path string, lgr zerolog.Logger) Source {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path, lgr)
	}
	return NewCSVSource(path, lgr)
}
