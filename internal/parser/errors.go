package parser

import "fmt"

// ParseError represents a parsing error with location information.
type ParseError struct {
	Message string
	File    string
	Line    uint32
	Column  uint32
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// InvalidEncodingError is returned when source bytes cannot be decoded as
// UTF-8 text. This aborts the session for that file only; other files in a
// multi-file run are unaffected.
type InvalidEncodingError struct {
	Path string
}

// Error implements the error interface.
func (e *InvalidEncodingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: source is not valid UTF-8", e.Path)
	}
	return "source is not valid UTF-8"
}

// UnsupportedFileError is returned for files without a C++ extension.
type UnsupportedFileError struct {
	Path string
}

// Error implements the error interface.
func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("%s is not a C++ source file", e.Path)
}

// FileReadError is returned when a file cannot be read.
type FileReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileReadError) Unwrap() error {
	return e.Err
}
