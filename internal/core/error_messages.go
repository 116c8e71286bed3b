package core

// # Error Codes Reference
//
// MapError turns any error from this package (or from the HTTP and
// database layers below it) into a UserMessage with a code users can quote.
// Codes are grouped by category:
//
// # Merge Errors (MRG001-MRG099)
//
//	MRG001 - Duplicate keys in the secondary file's key column
//	         Patterns: "duplicate keys found"
//	MRG002 - Join could not be executed
//	         Patterns: "join failed"
//	MRG003 - Source already merged into the working table
//	         Patterns: "already merged"
//	MRG004 - No working table yet
//	         Patterns: "no working table"
//	MRG005 - Initial merge already done
//	         Patterns: "merge already in progress"
//	MRG006 - Primary and secondary are the same source
//	         Patterns: "primary and secondary"
//	MRG007 - Unknown join mode
//	         Patterns: "invalid join mode"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Malformed request             Patterns: "invalid request body", "invalid form data"
//	VAL005 - Column not found
//	         Patterns: "column not found"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large               Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV                  Patterns: "invalid csv"
//	FILE003 - Invalid workbook             Patterns: "invalid workbook"
//	FILE004 - No file                      Patterns: "no file provided"
//	FILE005 - Empty file                   Patterns: "empty file"
//	FILE006 - Same file uploaded twice     Patterns: "duplicate source"
//	FILE007 - Unsupported file type        Patterns: "unsupported file type"
//	FILE008 - Sheet not found              Patterns: "sheet not found"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found             Patterns: "session not found"
//	SES002 - Source not found              Patterns: "source not found"
//	SES003 - Session limit reached         Patterns: "too many sessions"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No columns selected           Patterns: "no columns selected"
//	EXP002 - Database export disabled      Patterns: "database export not configured"
//	EXP003 - Invalid table name            Patterns: "invalid table name"
//	EXP004 - Unknown export format         Patterns: "unsupported export format"
//	EXP005 - Column chosen twice           Patterns: "selected twice"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Target table exists            Patterns: "already exists"
//	DB004 - Connection refused             Patterns: "connection refused"
//
// # Upload, Rate and Default
//
//	UPL002 - System busy                   Patterns: "too many uploads"
//	UPL004 - Request cancelled             Patterns: "context canceled"
//	UPL005 - Request timeout               Patterns: "context deadline exceeded"
//	RATE001 - Rate limited                 Patterns: "rate limit"
//	AUTH001 - Missing API key              Patterns: "missing api key"
//	AUTH002 - Invalid API key              Patterns: "invalid api key"
//	ERR000 - Anything else; check the logs for the technical error
//
// Patterns match case-insensitively with strings.Contains and the first
// match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Merge engine
	{
		pattern: "duplicate keys found",
		msg: UserMessage{
			Message: "The secondary file has repeated values in its key column",
			Action:  "Choose a key column whose values are unique, or remove the duplicate rows",
			Code:    "MRG001",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A selected column does not exist",
			Action:  "Pick the key and output columns from the lists shown",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send the fields as a form or as a JSON object",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid form data",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send the fields as a form or as a JSON object",
			Code:    "VAL001",
		},
	},
	{
		pattern: "join failed",
		msg: UserMessage{
			Message: "The files could not be merged",
			Action:  "Check the selected key columns and try again",
			Code:    "MRG002",
		},
	},
	{
		pattern: "already merged",
		msg: UserMessage{
			Message: "This file is already part of the merged data",
			Action:  "Choose a file that has not been merged yet",
			Code:    "MRG003",
		},
	},
	{
		pattern: "no working table",
		msg: UserMessage{
			Message: "Nothing has been merged yet",
			Action:  "Merge the first two files before adding more",
			Code:    "MRG004",
		},
	},
	{
		pattern: "merge already in progress",
		msg: UserMessage{
			Message: "The first two files are already merged",
			Action:  "Add further files to the merge, or reset to start over",
			Code:    "MRG005",
		},
	},
	{
		pattern: "primary and secondary",
		msg: UserMessage{
			Message: "The primary and secondary file are the same",
			Action:  "Choose two different files",
			Code:    "MRG006",
		},
	},
	{
		pattern: "invalid join mode",
		msg: UserMessage{
			Message: "Unknown merge type",
			Action:  "Choose \"" + LeftOuterLabel + "\" or \"" + InnerLabel + "\"",
			Code:    "MRG007",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Open the file in Excel and save it again as .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no data",
			Action:  "Upload a file with a header row and at least one data row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "duplicate source",
		msg: UserMessage{
			Message: "This file has already been uploaded",
			Action:  "Use the copy already in the file list",
			Code:    "FILE006",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE007",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The selected sheet does not exist in this workbook",
			Action:  "Choose one of the listed sheets",
			Code:    "FILE008",
		},
	},

	// Sessions
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Merge session not found",
			Action:  "The session may have expired. Please start a new one",
			Code:    "SES001",
		},
	},
	{
		pattern: "source not found",
		msg: UserMessage{
			Message: "File not found in this session",
			Action:  "Refresh the file list and try again",
			Code:    "SES002",
		},
	},
	{
		pattern: "too many sessions",
		msg: UserMessage{
			Message: "The server has too many open sessions",
			Action:  "Please wait a moment and try again",
			Code:    "SES003",
		},
	},

	// Export
	{
		pattern: "no columns selected",
		msg: UserMessage{
			Message: "No columns were selected for export",
			Action:  "Select at least one column",
			Code:    "EXP001",
		},
	},
	{
		pattern: "database export not configured",
		msg: UserMessage{
			Message: "Database export is not available",
			Action:  "Download the merged data as CSV or Excel instead",
			Code:    "EXP002",
		},
	},
	{
		pattern: "invalid table name",
		msg: UserMessage{
			Message: "Invalid database table name",
			Action:  "Use lower-case letters, digits and underscores",
			Code:    "EXP003",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Unknown download format",
			Action:  "Choose csv or xlsx",
			Code:    "EXP004",
		},
	},
	{
		pattern: "selected twice",
		msg: UserMessage{
			Message: "A column was selected more than once",
			Action:  "Select each column once",
			Code:    "EXP005",
		},
	},

	// Database
	{
		pattern: "already exists",
		msg: UserMessage{
			Message: "A table with this name already exists",
			Action:  "Choose a different table name",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},

	// Upload and request lifecycle
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "An API key is required",
			Action:  "Send your key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "The API key was not accepted",
			Action:  "Check the key with your administrator",
			Code:    "AUTH002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message, falling
// back to ERR000 when no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; it returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
