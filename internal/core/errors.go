package core

import (
	"errors"
	"fmt"
	"strings"
)

// DuplicatePreviewLimit caps how many offending key values a
// DuplicateKeyError carries for display.
var DuplicatePreviewLimit = 10

// Workflow and session errors. Messages contain the phrases MapError keys on.
var (
	ErrNoWorkingTable   = errors.New("no working table: merge the first two sources before adding more")
	ErrMergeInProgress  = errors.New("merge already in progress: reset before starting a new merge")
	ErrSourceConsumed   = errors.New("source already merged into the working table")
	ErrSourceNotFound   = errors.New("source not found")
	ErrSameSource       = errors.New("primary and secondary source must differ")
	ErrDuplicateSource  = errors.New("duplicate source: identical file already uploaded")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidJoinMode  = errors.New("invalid join mode")
	ErrEmptyFile        = errors.New("empty file")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrNoColumnsChosen  = errors.New("no columns selected")
	ErrExportNotEnabled = errors.New("database export not configured")
)

// ColumnNotFoundError is returned when a named column does not exist.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("column not found: %q", e.Column)
	}
	return fmt.Sprintf("column not found: %q in %q", e.Column, e.Table)
}

// DuplicateKeyError reports repeated values in a right-hand join key.
// Keys holds at most DuplicatePreviewLimit values; Total is the full count.
type DuplicateKeyError struct {
	Table  string
	Column string
	Keys   []string
	Total  int
}

func (e *DuplicateKeyError) Error() string {
	msg := fmt.Sprintf("duplicate keys found in %q column %q: %s",
		e.Table, e.Column, strings.Join(e.Keys, ", "))
	if e.Total > len(e.Keys) {
		msg += fmt.Sprintf(" (and %d more)", e.Total-len(e.Keys))
	}
	return msg
}

// JoinExecutionError wraps any failure while producing the joined table.
type JoinExecutionError struct {
	Err error
}

func (e *JoinExecutionError) Error() string {
	return "join failed: " + e.Err.Error()
}

func (e *JoinExecutionError) Unwrap() error {
	return e.Err
}
