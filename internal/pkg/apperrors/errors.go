package apperrors

import "errors"

// Ingestion error taxonomy
var (
	// ErrSourceNotFound means a program's configured source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrParseMismatch means a line, row, or token does not fit the expected grammar.
	ErrParseMismatch = errors.New("parse mismatch")
	// ErrUnresolvedReference means a foreign key could not be resolved during reconciliation.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrStoreOperation means a select, insert, or delete against the store failed.
	ErrStoreOperation = errors.New("store operation failed")
	// ErrConnection means the initial store connection could not be established.
	ErrConnection = errors.New("store connection failed")
)

// Lookup errors
var (
	ErrUnknownProgram    = errors.New("unknown program")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownColumn     = errors.New("unknown column")
)

// Constraint errors raised by stores
var (
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewSourceNotFoundError wraps ErrSourceNotFound with the offending path.
func NewSourceNotFoundError(path string) error {
	return NewCustomError(ErrSourceNotFound, path).
		WithDetails(map[string]interface{}{"path": path})
}

// NewStoreError wraps ErrStoreOperation with the failing operation and cause.
func NewStoreError(op, collection string, cause error) error {
	return NewCustomError(errors.Join(ErrStoreOperation, cause), op+" "+collection).
		WithDetails(map[string]interface{}{"op": op, "collection": collection})
}
