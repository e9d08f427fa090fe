package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Term identifier pattern, e.g. PA2026 or 2026-1
	TermPattern = `^[A-Za-z0-9][A-Za-z0-9_-]*$`

	// Program identifier pattern, e.g. ICC or LICC
	ProgramIDPattern = `^[A-Za-z][A-Za-z0-9_-]*$`

	// Max lengths match the store columns
	TermMaxLength      = 32
	ProgramIDMaxLength = 16
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Term      *regexp.Regexp
	ProgramID *regexp.Regexp
}{
	Term:      regexp.MustCompile(TermPattern),
	ProgramID: regexp.MustCompile(ProgramIDPattern),
}

// StringValidation checks one string value against length and pattern rules.
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}
	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}

// ValidTerm reports whether s can be used as a term identifier.
func ValidTerm(s string) bool {
	return NewStringValidation(s).
		WithMaxLength(TermMaxLength).
		WithPattern(CompiledPatterns.Term).
		Validate()
}

// ValidProgramID reports whether s can be used as a program identifier.
func ValidProgramID(s string) bool {
	return NewStringValidation(s).
		WithMaxLength(ProgramIDMaxLength).
		WithPattern(CompiledPatterns.ProgramID).
		Validate()
}

// New returns a validator with the custom tags registered:
//
//	duration    a string accepted by time.ParseDuration
//	program_id  a program identifier (see ValidProgramID)
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("program_id", func(fl validator.FieldLevel) bool {
		return ValidProgramID(fl.Field().String())
	})
	return v
}
