package record

import (
	"fmt"
)

// FileNotFoundError is returned when the input location does not exist.
//
// The underlying error (os.ErrNotExist or the object store response) is
// available via errors.Unwrap.
type FileNotFoundError struct {
	Location string
	cause    error
}

// NewFileNotFoundError wraps cause as a FileNotFoundError for location.
func NewFileNotFoundError(location string, cause error) *FileNotFoundError {
	return &FileNotFoundError{Location: location, cause: cause}
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", e.Location)
}

func (e *FileNotFoundError) Unwrap() error { return e.cause }

// RowShapeError indicates a line whose field count differs from the schema.
type RowShapeError struct {
	Line int
	Want int
	Got  int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("line %d: expected %d fields, got %d", e.Line, e.Want, e.Got)
}

// FieldParseError indicates a numeric column that could not be converted.
type FieldParseError struct {
	Line   int
	Column Column
	Value  string
	cause  error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q", e.Line, e.Column, e.Value)
}

func (e *FieldParseError) Unwrap() error { return e.cause }
