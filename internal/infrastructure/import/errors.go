package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
)

// Import error codes
const (
	ErrCodeImportTooFewColumns   = "ERR_IMPORT_TOO_FEW_COLUMNS"
	ErrCodeImportInvalidDate     = "ERR_IMPORT_INVALID_DATE"
	ErrCodeImportInvalidAmount   = "ERR_IMPORT_INVALID_AMOUNT"
	ErrCodeImportMissingExternal = "ERR_IMPORT_MISSING_EXTERNAL_ID"
	ErrCodeImportUnknownAccount  = "ERR_IMPORT_UNKNOWN_ACCOUNT"
	ErrCodeImportNoAccount       = "ERR_IMPORT_NO_ACCOUNT"
	ErrCodeImportRowRejected     = "ERR_IMPORT_ROW_REJECTED"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the feed has no content
	ErrEmptyFile = errors.New("feed is empty")

	// ErrInvalidEncoding is returned when the feed is not UTF-8
	ErrInvalidEncoding = errors.New("feed is not valid UTF-8")

	// ErrMalformedFeed is returned when the delimited text cannot be read
	ErrMalformedFeed = errors.New("malformed feed")

	// ErrFileTooLarge is returned when the feed exceeds the maximum size
	ErrFileTooLarge = errors.New("feed exceeds maximum allowed size")
)

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []bulk.RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]bulk.RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err bulk.RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRowError adds an error for a row and column
func (ec *ErrorCollection) AddRowError(row int, column, code, message, value string) {
	ec.Add(bulk.RowError{Row: row, Column: column, Code: code, Message: message, Value: value})
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []bulk.RowError {
	return ec.errors
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) found", ec.totalCount))
	if ec.IsTruncated() {
		sb.WriteString(fmt.Sprintf(" (showing first %d)", ec.maxErrors))
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		if err.Column != "" {
			sb.WriteString(fmt.Sprintf("  - row %d, column '%s': %s\n", err.Row, err.Column, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  - row %d: %s\n", err.Row, err.Message))
		}
	}
	return sb.String()
}
